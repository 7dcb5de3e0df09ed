package cli

import (
	"github.com/spf13/cobra"
)

// createStatsCommand creates the 'stats' command
func (c *CLI) createStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show PRD analytics",
		Long:  `Show counts by status, priority, author and tag together with completion statistics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.getOutputFormatter(cmd).FormatAnalytics(
				c.manager.GenerateAnalytics(),
				c.manager.GetCompletionStats())
		},
	}
}

// createReportCommand creates the 'report' command
func (c *CLI) createReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show average completion per status",
		Long:  `Show the average completion percentage of the PRDs in each status. Empty statuses report 0%.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.getOutputFormatter(cmd).FormatProgressReport(c.manager.GetStatusProgressReport())
		},
	}
}

// createDashboardCommand creates the 'dashboard' command
func (c *CLI) createDashboardCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the PRD dashboard",
		Long: `Show totals, status and priority distribution, per-status progress, top
authors, PRDs needing attention and the most recently updated PRDs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = c.recentLimit()
			}
			return c.getOutputFormatter(cmd).FormatDashboard(c.buildDashboard(limit))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Number of recent PRDs to show (default cli.recent_limit)")

	return cmd
}

func (c *CLI) buildDashboard(recent int) Dashboard {
	return Dashboard{
		Analytics:  c.manager.GenerateAnalytics(),
		Completion: c.manager.GetCompletionStats(),
		Progress:   c.manager.GetStatusProgressReport(),
		Attention:  c.manager.GetPRDsNeedingAttention(),
		Recent:     c.manager.RecentPRDs(recent),
	}
}
