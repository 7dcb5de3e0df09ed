package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"prd-manager/internal/domain/entities"
	"prd-manager/internal/domain/services"
)

var mutating = map[string]string{annotationMutates: "true"}

// createCreateCommand creates the 'create' command
func (c *CLI) createCreateCommand() *cobra.Command {
	var (
		description string
		author      string
		priority    string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new PRD",
		Long: `Create a new PRD in Draft status at 0% completion.

The priority and author default to defaults.priority and defaults.author
from the configuration.`,
		Example: `  prdctl create "User Authentication System" --author "Dev Team" -t security -t auth
  prdctl create "API Rate Limiting" -p critical --description "Protect the public API"`,
		Args:        cobra.MinimumNArgs(1),
		Annotations: mutating,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")

			options := make([]services.PRDOption, 0, 2)

			level := c.defaultPriority()
			if cmd.Flags().Changed("priority") {
				parsed, err := parsePriorityArg(priority)
				if err != nil {
					return c.handleError(cmd, err)
				}
				level = parsed
			}
			options = append(options, services.WithPriority(level))

			if len(tags) > 0 {
				options = append(options, services.WithTags(tags...))
			}

			if author == "" && c.config != nil {
				author = c.config.Defaults.Author
			}

			id := c.manager.CreatePRD(title, description, author, options...)
			prd, _ := c.manager.GetPRD(id)

			c.logger.Debug("prd created from cli", "prd_id", id)
			return c.getOutputFormatter(cmd).FormatPRD(prd)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "PRD description")
	cmd.Flags().StringVarP(&author, "author", "a", "", "PRD author or owning team")
	cmd.Flags().StringVarP(&priority, "priority", "p", "",
		fmt.Sprintf("Priority (%s)", strings.Join(priorityNames(), ", ")))
	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "Tags (repeat or comma-separate)")

	return cmd
}

// createListCommand creates the 'list' command
func (c *CLI) createListCommand() *cobra.Command {
	var status, priority, tag string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List PRDs",
		Long:    `List PRDs in creation order, optionally filtered by status, priority or tag. Filters combine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prds := c.manager.GetAllPRDs()

			if status != "" {
				parsed, err := parseStatusArg(status)
				if err != nil {
					return c.handleError(cmd, err)
				}
				prds = intersect(prds, c.manager.GetPRDsByStatus(parsed))
			}

			if priority != "" {
				parsed, err := parsePriorityArg(priority)
				if err != nil {
					return c.handleError(cmd, err)
				}
				prds = intersect(prds, c.manager.GetPRDsByPriority(parsed))
			}

			if tag != "" {
				prds = intersect(prds, c.manager.GetPRDsByTag(tag))
			}

			return c.getOutputFormatter(cmd).FormatPRDList(prds)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Filter by priority")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Filter by tag")

	return cmd
}

// createShowCommand creates the 'show' command
func (c *CLI) createShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a PRD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prd, found := c.manager.GetPRD(args[0])
			if !found {
				return c.handleError(cmd, NewPRDNotFoundError(args[0]))
			}
			return c.getOutputFormatter(cmd).FormatPRD(prd)
		},
	}
}

// createStatusCommand creates the 'status' command
func (c *CLI) createStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a PRD to a workflow status",
		Long: fmt.Sprintf(`Set the workflow status of a PRD. Any status may follow any other.

Statuses: %s`, strings.Join(statusNames(), ", ")),
		Example:     `  prdctl status PRD-1700000000000-1234 in-development`,
		Args:        cobra.ExactArgs(2),
		Annotations: mutating,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := parseStatusArg(args[1])
			if err != nil {
				return c.handleError(cmd, err)
			}

			if !c.manager.UpdatePRDStatus(args[0], status) {
				return c.handleError(cmd, NewPRDNotFoundError(args[0]))
			}

			return c.getOutputFormatter(cmd).FormatMessage(
				fmt.Sprintf("%s is now %s %s", args[0], status.Icon(), status.DisplayName()))
		},
	}
}

// createProgressCommand creates the 'progress' command
func (c *CLI) createProgressCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "progress <id> <percent>",
		Short:       "Set PRD completion percentage",
		Long:        `Set the completion percentage of a PRD. Values outside 0-100 are clamped.`,
		Args:        cobra.ExactArgs(2),
		Annotations: mutating,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimSuffix(strings.TrimSpace(args[1]), "%")
			percentage, err := strconv.Atoi(raw)
			if err != nil {
				return c.handleError(cmd, NewInvalidArgumentError("percentage", args[1], err, []string{"0-100"}))
			}

			if !c.manager.UpdatePRDCompletion(args[0], percentage) {
				return c.handleError(cmd, NewPRDNotFoundError(args[0]))
			}

			prd, _ := c.manager.GetPRD(args[0])
			return c.getOutputFormatter(cmd).FormatMessage(
				fmt.Sprintf("%s is %s", args[0], prd.ProgressDescription()))
		},
	}
}

// createPriorityCommand creates the 'priority' command
func (c *CLI) createPriorityCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "priority <id> <priority>",
		Short:       "Change PRD priority",
		Args:        cobra.ExactArgs(2),
		Annotations: mutating,
		RunE: func(cmd *cobra.Command, args []string) error {
			priority, err := parsePriorityArg(args[1])
			if err != nil {
				return c.handleError(cmd, err)
			}

			if !c.manager.UpdatePRDPriority(args[0], priority) {
				return c.handleError(cmd, NewPRDNotFoundError(args[0]))
			}

			return c.getOutputFormatter(cmd).FormatMessage(
				fmt.Sprintf("%s priority set to %s", args[0], priority.DisplayName()))
		},
	}
}

// createTagCommand creates the 'tag' command
func (c *CLI) createTagCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "tag <id> <tag>...",
		Short:       "Add tags to a PRD",
		Long:        `Add one or more tags to a PRD. Tags are trimmed and lowercased; duplicates are ignored.`,
		Args:        cobra.MinimumNArgs(2),
		Annotations: mutating,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			for _, tag := range args[1:] {
				if !c.manager.AddPRDTag(id, tag) {
					return c.handleError(cmd, NewPRDNotFoundError(id))
				}
			}

			prd, _ := c.manager.GetPRD(id)
			return c.getOutputFormatter(cmd).FormatMessage(
				fmt.Sprintf("%s tags: %s", id, joinTags(prd.Tags)))
		},
	}
}

// createEditCommand creates the 'edit' command
func (c *CLI) createEditCommand() *cobra.Command {
	var title, description, author string

	cmd := &cobra.Command{
		Use:         "edit <id>",
		Short:       "Edit PRD title, description or author",
		Long:        `Edit the descriptive fields of a PRD. Only the flags given are changed.`,
		Args:        cobra.ExactArgs(1),
		Annotations: mutating,
		RunE: func(cmd *cobra.Command, args []string) error {
			prd, found := c.manager.GetPRD(args[0])
			if !found {
				return c.handleError(cmd, NewPRDNotFoundError(args[0]))
			}

			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("description") && !flags.Changed("author") {
				return c.handleError(cmd, fmt.Errorf("nothing to change: pass --title, --description or --author"))
			}

			if !flags.Changed("title") {
				title = prd.Title
			}
			if !flags.Changed("description") {
				description = prd.Description
			}
			if !flags.Changed("author") {
				author = prd.Author
			}

			c.manager.UpdatePRDDetails(args[0], title, description, author)
			return c.getOutputFormatter(cmd).FormatPRD(prd)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVarP(&author, "author", "a", "", "New author")

	return cmd
}

// createSearchCommand creates the 'search' command
func (c *CLI) createSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search [term]",
		Short: "Search PRDs",
		Long: `Case-insensitive substring search over titles, descriptions and tags.
An empty term matches every PRD.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			return c.getOutputFormatter(cmd).FormatPRDList(c.manager.SearchPRDs(term))
		},
	}
}

// createAttentionCommand creates the 'attention' command
func (c *CLI) createAttentionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "attention",
		Short: "List PRDs that need attention",
		Long: `List PRDs that are in development below 50%, critical but still drafts,
or in testing below 80%.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.getOutputFormatter(cmd).FormatPRDList(c.manager.GetPRDsNeedingAttention())
		},
	}
}

func (c *CLI) defaultPriority() entities.Priority {
	if c.config != nil && c.config.Defaults.Priority.IsValid() {
		return c.config.Defaults.Priority
	}
	return entities.PriorityMedium
}

func parseStatusArg(value string) (entities.Status, error) {
	status, err := entities.ParseStatus(value)
	if err != nil {
		return 0, NewInvalidArgumentError("status", value, err, statusNames())
	}
	return status, nil
}

func parsePriorityArg(value string) (entities.Priority, error) {
	priority, err := entities.ParsePriority(value)
	if err != nil {
		return 0, NewInvalidArgumentError("priority", value, err, priorityNames())
	}
	return priority, nil
}

// intersect keeps the PRDs of base that also appear in other, in base order
func intersect(base, other []*entities.PRD) []*entities.PRD {
	keep := make(map[string]struct{}, len(other))
	for _, prd := range other {
		keep[prd.ID] = struct{}{}
	}

	result := make([]*entities.PRD, 0, len(base))
	for _, prd := range base {
		if _, ok := keep[prd.ID]; ok {
			result = append(result, prd)
		}
	}
	return result
}
