package cli

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prd-manager/internal/adapters/secondary/report"
	"prd-manager/internal/adapters/secondary/seed"
)

const formatJSON = "json"

// createExportCommand creates the 'export' command
func (c *CLI) createExportCommand() *cobra.Command {
	var format, file, title string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export PRDs",
		Long: `Export the PRD collection.

The json format is the import format: a JSON array with every PRD field.
markdown, html, csv and yaml produce a report with analytics.`,
		Example: `  prdctl export > prds.json
  prdctl export --format html --file report.html
  prdctl export --format csv --file prds.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := c.renderExport(format, title)
			if err != nil {
				return c.handleError(cmd, err)
			}

			if file == "" {
				_, err := cmd.OutOrStdout().Write(content)
				return err
			}

			if err := writeOutputFile(file, content); err != nil {
				return c.handleError(cmd, err)
			}

			c.logger.Info("prds exported", "path", file, "format", format)
			return c.getOutputFormatter(cmd).FormatMessage(
				fmt.Sprintf("Exported %d PRDs to %s", c.manager.Count(), file))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Export format (json, markdown, html, csv, yaml)")
	cmd.Flags().StringVar(&file, "file", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&title, "title", "PRD Report", "Report title for document formats")

	return cmd
}

func (c *CLI) renderExport(format, title string) ([]byte, error) {
	if strings.EqualFold(strings.TrimSpace(format), formatJSON) {
		data, err := c.manager.ExportToJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to export: %w", err)
		}
		return []byte(data + "\n"), nil
	}

	reportFormat, err := report.ParseFormat(format)
	if err != nil {
		valid := []string{formatJSON}
		for _, f := range report.Formats() {
			valid = append(valid, string(f))
		}
		return nil, NewInvalidArgumentError("format", format, err, valid)
	}

	renderer := c.renderer
	if renderer == nil {
		renderer = report.NewRenderer()
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, reportFormat, report.Build(c.manager, title)); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", reportFormat, err)
	}
	return buf.Bytes(), nil
}

// createImportCommand creates the 'import' command
func (c *CLI) createImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import PRDs from a JSON export",
		Long: `Replace the PRD collection with the contents of a JSON export.

The file is validated as a whole first; when any record is malformed nothing
is changed.`,
		Args:        cobra.ExactArgs(1),
		Annotations: mutating,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInputFile(args[0])
			if err != nil {
				return c.handleError(cmd, err)
			}

			if err := c.manager.ImportFromJSON(string(content)); err != nil {
				return c.handleError(cmd, NewImportError(args[0], err))
			}

			return c.getOutputFormatter(cmd).FormatMessage(
				fmt.Sprintf("Imported %d PRDs from %s", c.manager.Count(), args[0]))
		},
	}
}

// createSeedCommand creates the 'seed' command
func (c *CLI) createSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Add sample PRDs",
		Long: `Add sample PRDs to the collection. Without a file the built-in sample set
is used; a file must be a YAML list of samples.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: mutating,
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := c.loadSamples(args)
			if err != nil {
				return c.handleError(cmd, err)
			}

			ids, err := c.loader().Apply(c.manager, samples)
			if err != nil {
				return c.handleError(cmd, err)
			}

			return c.getOutputFormatter(cmd).FormatMessage(
				fmt.Sprintf("Added %d sample PRDs (%d total)", len(ids), c.manager.Count()))
		},
	}
}

// createDemoCommand creates the 'demo' command
func (c *CLI) createDemoCommand() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Show the dashboard for the built-in sample PRDs",
		Long: `Load the built-in sample PRDs into an in-memory collection and show the
dashboard and a search over them. The data file is neither read nor written.`,
		Annotations: map[string]string{annotationNoSnapshot: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.loader().ApplyDefault(c.manager); err != nil {
				return c.handleError(cmd, err)
			}

			formatter := c.getOutputFormatter(cmd)
			if err := formatter.FormatDashboard(c.buildDashboard(c.recentLimit())); err != nil {
				return err
			}

			if search == "" {
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nSearch results for %q:\n", search)
			return formatter.FormatPRDList(c.manager.SearchPRDs(search))
		},
	}

	cmd.Flags().StringVar(&search, "search", "security", "Search term to demonstrate (empty to skip)")

	return cmd
}

func (c *CLI) loader() *seed.Loader {
	if c.seeder == nil {
		c.seeder = seed.NewLoader(c.logger)
	}
	return c.seeder
}

func (c *CLI) loadSamples(args []string) ([]seed.Sample, error) {
	if len(args) == 0 {
		return seed.DefaultSamples()
	}

	content, err := readInputFile(args[0])
	if err != nil {
		return nil, err
	}
	return seed.Parse(content)
}
