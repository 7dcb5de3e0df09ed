package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"prd-manager/internal/domain/entities"
)

const (
	dashboardRule     = 60
	dashboardTopLimit = 5
	titleWidth        = 40
)

// Dashboard is everything the dashboard view shows
type Dashboard struct {
	Analytics  entities.Analytics          `json:"analytics"`
	Completion entities.CompletionStats    `json:"completion"`
	Progress   map[entities.Status]float64 `json:"status_progress"`
	Attention  []*entities.PRD             `json:"needs_attention"`
	Recent     []*entities.PRD             `json:"recent"`
}

// OutputFormatter defines the interface for formatting PRD output
type OutputFormatter interface {
	FormatPRD(prd *entities.PRD) error
	FormatPRDList(prds []*entities.PRD) error
	FormatAnalytics(analytics entities.Analytics, stats entities.CompletionStats) error
	FormatProgressReport(progress map[entities.Status]float64) error
	FormatDashboard(dashboard Dashboard) error
	FormatMessage(message string) error
	FormatError(err error) error
}

// TableFormatter formats output as ASCII tables
type TableFormatter struct {
	writer  io.Writer
	palette *Palette
}

// NewTableFormatter creates a new table formatter. A nil palette disables color.
func NewTableFormatter(w io.Writer, palette *Palette) OutputFormatter {
	if palette == nil {
		palette = NewPalette(w, "never")
	}
	return &TableFormatter{writer: w, palette: palette}
}

// FormatPRD formats a single PRD as a field/value table
func (f *TableFormatter) FormatPRD(prd *entities.PRD) error {
	table := tablewriter.NewWriter(f.writer)
	table.Header("Field", "Value")

	_ = table.Append([]string{"ID", prd.ID})
	_ = table.Append([]string{"Title", prd.Title})
	_ = table.Append([]string{"Description", valueOrDefault(prd.Description, "-")})
	_ = table.Append([]string{"Author", valueOrDefault(prd.Author, "-")})
	_ = table.Append([]string{"Status", f.palette.Status(prd.Status)})
	_ = table.Append([]string{"Priority", f.palette.Priority(prd.Priority)})
	_ = table.Append([]string{"Completion", f.palette.Progress(prd.CompletionPercentage)})
	_ = table.Append([]string{"Tags", joinTags(prd.Tags)})
	_ = table.Append([]string{"Created", prd.CreatedAt.Local().Format("2006-01-02 15:04")})
	_ = table.Append([]string{"Updated", prd.UpdatedAt.Local().Format("2006-01-02 15:04")})

	if err := table.Render(); err != nil {
		return err
	}

	if prd.NeedsAttention() {
		_, _ = fmt.Fprintln(f.writer, f.palette.Warning("⚠️  This PRD needs attention"))
	}
	return nil
}

// FormatPRDList formats multiple PRDs as a table
func (f *TableFormatter) FormatPRDList(prds []*entities.PRD) error {
	if len(prds) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No PRDs found.")
		return nil
	}

	table := tablewriter.NewWriter(f.writer)
	table.Header("#", "ID", "Title", "Status", "Priority", "Done", "Tags", "Updated")

	for i, prd := range prds {
		_ = table.Append([]string{
			strconv.Itoa(i + 1),
			prd.ID,
			truncate(prd.Title, titleWidth),
			f.palette.Status(prd.Status),
			f.palette.Priority(prd.Priority),
			fmt.Sprintf("%d%%", prd.CompletionPercentage),
			joinTags(prd.Tags),
			prd.UpdatedAt.Local().Format("01/02 15:04"),
		})
	}

	if err := table.Render(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(f.writer, "\nTotal: %d PRDs\n", len(prds))
	return nil
}

// FormatAnalytics formats collection analytics as tables
func (f *TableFormatter) FormatAnalytics(analytics entities.Analytics, stats entities.CompletionStats) error {
	table := tablewriter.NewWriter(f.writer)
	table.Header("Metric", "Value")

	_ = table.Append([]string{"Total PRDs", strconv.Itoa(analytics.TotalPRDs)})
	_ = table.Append([]string{"Average Completion", fmt.Sprintf("%.1f%%", analytics.AverageCompletion)})
	_ = table.Append([]string{"Lowest Completion", fmt.Sprintf("%d%%", stats.Min)})
	_ = table.Append([]string{"Highest Completion", fmt.Sprintf("%d%%", stats.Max)})
	_ = table.Append([]string{"Authors", strconv.Itoa(len(analytics.AuthorCounts))})
	_ = table.Append([]string{"Distinct Tags", strconv.Itoa(len(analytics.TagCounts))})

	if err := table.Render(); err != nil {
		return err
	}

	if err := f.renderDistribution(analytics); err != nil {
		return err
	}

	if tags := analytics.MostUsedTags(dashboardTopLimit); len(tags) > 0 {
		_, _ = fmt.Fprintln(f.writer, "\n"+f.palette.Header("Most Used Tags"))
		for _, entry := range tags {
			_, _ = fmt.Fprintf(f.writer, "  %-20s %d\n", entry.Key, entry.Count)
		}
	}
	return nil
}

func (f *TableFormatter) renderDistribution(analytics entities.Analytics) error {
	_, _ = fmt.Fprintln(f.writer, "\n"+f.palette.Header("Status Distribution"))
	statusTable := tablewriter.NewWriter(f.writer)
	statusTable.Header("Status", "PRDs")
	for _, status := range entities.AllStatuses() {
		_ = statusTable.Append([]string{
			f.palette.Status(status),
			strconv.Itoa(analytics.StatusCounts[status.DisplayName()]),
		})
	}
	if err := statusTable.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(f.writer, "\n"+f.palette.Header("Priority Distribution"))
	priorityTable := tablewriter.NewWriter(f.writer)
	priorityTable.Header("Priority", "PRDs")
	for _, priority := range entities.AllPriorities() {
		_ = priorityTable.Append([]string{
			f.palette.Priority(priority),
			strconv.Itoa(analytics.PriorityCounts[priority.DisplayName()]),
		})
	}
	return priorityTable.Render()
}

// FormatProgressReport formats average completion per status
func (f *TableFormatter) FormatProgressReport(progress map[entities.Status]float64) error {
	table := tablewriter.NewWriter(f.writer)
	table.Header("Status", "Average Completion")

	for _, status := range entities.AllStatuses() {
		_ = table.Append([]string{
			f.palette.Status(status),
			f.palette.Progress(int(progress[status] + 0.5)),
		})
	}

	return table.Render()
}

// FormatDashboard formats the full dashboard
func (f *TableFormatter) FormatDashboard(d Dashboard) error {
	rule := strings.Repeat("=", dashboardRule)
	_, _ = fmt.Fprintln(f.writer, rule)
	_, _ = fmt.Fprintln(f.writer, f.palette.Header("PRD MANAGEMENT SYSTEM - DASHBOARD"))
	_, _ = fmt.Fprintln(f.writer, rule)

	_, _ = fmt.Fprintf(f.writer, "Total PRDs: %d\n", d.Analytics.TotalPRDs)
	_, _ = fmt.Fprintf(f.writer, "Average Completion: %.1f%% (min %d%%, max %d%%)\n",
		d.Analytics.AverageCompletion, d.Completion.Min, d.Completion.Max)

	if err := f.renderDistribution(d.Analytics); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(f.writer, "\n"+f.palette.Header("Status Progress"))
	if err := f.FormatProgressReport(d.Progress); err != nil {
		return err
	}

	if contributors := d.Analytics.TopContributors(dashboardTopLimit); len(contributors) > 0 {
		_, _ = fmt.Fprintln(f.writer, "\n"+f.palette.Header("Top Authors"))
		for _, entry := range contributors {
			_, _ = fmt.Fprintf(f.writer, "  %s: %d PRDs\n", entry.Key, entry.Count)
		}
	}

	_, _ = fmt.Fprintln(f.writer, "\n"+f.palette.Header("Needs Attention"))
	if len(d.Attention) == 0 {
		_, _ = fmt.Fprintln(f.writer, f.palette.Success("  Nothing needs attention"))
	}
	for _, prd := range d.Attention {
		_, _ = fmt.Fprintf(f.writer, "  %s %s %s\n", f.palette.Warning("⚠️"), prd, f.palette.Priority(prd.Priority))
	}

	_, _ = fmt.Fprintln(f.writer, "\n"+f.palette.Header("Recent PRDs"))
	if len(d.Recent) == 0 {
		_, _ = fmt.Fprintln(f.writer, f.palette.Muted("  No PRDs yet"))
	}
	for _, prd := range d.Recent {
		_, _ = fmt.Fprintf(f.writer, "  %s %s\n", prd.StatusIcon(), prd)
	}
	return nil
}

// FormatMessage prints a confirmation line
func (f *TableFormatter) FormatMessage(message string) error {
	_, _ = fmt.Fprintln(f.writer, f.palette.Success("✓ ")+message)
	return nil
}

// FormatError formats an error message
func (f *TableFormatter) FormatError(err error) error {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		_, _ = fmt.Fprint(f.writer, f.palette.Failure(cliErr.Error()))
		return nil
	}
	_, _ = fmt.Fprintln(f.writer, f.palette.Failure("Error: "+err.Error()))
	return nil
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	writer io.Writer
	pretty bool
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer, pretty bool) OutputFormatter {
	return &JSONFormatter{writer: w, pretty: pretty}
}

func (f *JSONFormatter) write(v any, what string) error {
	var data []byte
	var err error

	if f.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", what, err)
	}

	_, _ = fmt.Fprintln(f.writer, string(data))
	return nil
}

// FormatPRD formats a single PRD as JSON
func (f *JSONFormatter) FormatPRD(prd *entities.PRD) error {
	return f.write(prd, "prd")
}

// FormatPRDList formats multiple PRDs as JSON
func (f *JSONFormatter) FormatPRDList(prds []*entities.PRD) error {
	if prds == nil {
		prds = []*entities.PRD{}
	}
	return f.write(map[string]interface{}{
		"prds":  prds,
		"count": len(prds),
	}, "prds")
}

// FormatAnalytics formats analytics as JSON
func (f *JSONFormatter) FormatAnalytics(analytics entities.Analytics, stats entities.CompletionStats) error {
	return f.write(map[string]interface{}{
		"analytics":        analytics,
		"completion_stats": stats,
		"most_used_tags":   analytics.MostUsedTags(0),
		"top_contributors": analytics.TopContributors(0),
	}, "analytics")
}

// FormatProgressReport formats the status progress report as JSON
func (f *JSONFormatter) FormatProgressReport(progress map[entities.Status]float64) error {
	return f.write(progress, "progress report")
}

// FormatDashboard formats the dashboard as JSON
func (f *JSONFormatter) FormatDashboard(d Dashboard) error {
	if d.Attention == nil {
		d.Attention = []*entities.PRD{}
	}
	if d.Recent == nil {
		d.Recent = []*entities.PRD{}
	}
	return f.write(d, "dashboard")
}

// FormatMessage formats a confirmation as JSON
func (f *JSONFormatter) FormatMessage(message string) error {
	return f.write(map[string]string{"message": message}, "message")
}

// FormatError formats an error as JSON
func (f *JSONFormatter) FormatError(err error) error {
	result := map[string]interface{}{
		"error": err.Error(),
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		result["error"] = cliErr.Message
		result["code"] = cliErr.Code
		if cliErr.Details != "" {
			result["details"] = cliErr.Details
		}
		if len(cliErr.Recovery) > 0 {
			commands := make([]string, 0, len(cliErr.Recovery))
			for _, opt := range cliErr.Recovery {
				commands = append(commands, opt.Command)
			}
			result["recovery"] = commands
		}
	}

	return f.write(result, "error")
}

// PlainFormatter formats output as plain text
type PlainFormatter struct {
	writer io.Writer
}

// NewPlainFormatter creates a new plain text formatter
func NewPlainFormatter(w io.Writer) OutputFormatter {
	return &PlainFormatter{writer: w}
}

// FormatPRD formats a single PRD as plain text
func (f *PlainFormatter) FormatPRD(prd *entities.PRD) error {
	_, _ = fmt.Fprintf(f.writer, "[%s] %s\n", prd.ID, prd.Title)
	if prd.Description != "" {
		_, _ = fmt.Fprintf(f.writer, "%s\n", prd.Description)
	}
	_, _ = fmt.Fprintf(f.writer, "Status: %s | Priority: %s | %s\n",
		prd.Status.DisplayName(), prd.Priority.DisplayName(), prd.ProgressDescription())

	if prd.Author != "" {
		_, _ = fmt.Fprintf(f.writer, "Author: %s\n", prd.Author)
	}
	if len(prd.Tags) > 0 {
		_, _ = fmt.Fprintf(f.writer, "Tags: %s\n", strings.Join(prd.Tags, ", "))
	}

	_, _ = fmt.Fprintf(f.writer, "Created: %s | Updated: %s\n",
		prd.CreatedAt.Format(time.RFC3339),
		prd.UpdatedAt.Format(time.RFC3339))

	return nil
}

// FormatPRDList formats multiple PRDs as plain text
func (f *PlainFormatter) FormatPRDList(prds []*entities.PRD) error {
	if len(prds) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No PRDs found.")
		return nil
	}

	for i, prd := range prds {
		_, _ = fmt.Fprintf(f.writer, "%d. [%s] %s (%s/%s, %d%%)\n",
			i+1,
			prd.ID,
			truncate(prd.Title, 60),
			prd.Status.DisplayName(),
			prd.Priority.DisplayName(),
			prd.CompletionPercentage)

		if len(prd.Tags) > 0 {
			_, _ = fmt.Fprintf(f.writer, "   Tags: %s\n", strings.Join(prd.Tags, ", "))
		}
	}

	_, _ = fmt.Fprintf(f.writer, "\nTotal: %d PRDs\n", len(prds))
	return nil
}

// FormatAnalytics formats analytics as plain text
func (f *PlainFormatter) FormatAnalytics(analytics entities.Analytics, stats entities.CompletionStats) error {
	_, _ = fmt.Fprintf(f.writer, "Total PRDs: %d\n", analytics.TotalPRDs)
	_, _ = fmt.Fprintf(f.writer, "Average Completion: %.1f%%\n", analytics.AverageCompletion)
	_, _ = fmt.Fprintf(f.writer, "Completion Range: %d%% - %d%%\n", stats.Min, stats.Max)

	_, _ = fmt.Fprintln(f.writer, "Status:")
	for _, status := range entities.AllStatuses() {
		_, _ = fmt.Fprintf(f.writer, "  %s: %d\n", status.DisplayName(), analytics.StatusCounts[status.DisplayName()])
	}

	_, _ = fmt.Fprintln(f.writer, "Priority:")
	for _, priority := range entities.AllPriorities() {
		_, _ = fmt.Fprintf(f.writer, "  %s: %d\n", priority.DisplayName(), analytics.PriorityCounts[priority.DisplayName()])
	}

	if contributors := analytics.TopContributors(dashboardTopLimit); len(contributors) > 0 {
		_, _ = fmt.Fprintln(f.writer, "Top Authors:")
		for _, entry := range contributors {
			_, _ = fmt.Fprintf(f.writer, "  %s: %d\n", entry.Key, entry.Count)
		}
	}

	if tags := analytics.MostUsedTags(dashboardTopLimit); len(tags) > 0 {
		_, _ = fmt.Fprintln(f.writer, "Tags:")
		for _, entry := range tags {
			_, _ = fmt.Fprintf(f.writer, "  %s: %d\n", entry.Key, entry.Count)
		}
	}

	return nil
}

// FormatProgressReport formats the status progress report as plain text
func (f *PlainFormatter) FormatProgressReport(progress map[entities.Status]float64) error {
	for _, status := range entities.AllStatuses() {
		_, _ = fmt.Fprintf(f.writer, "%s: %.1f%%\n", status.DisplayName(), progress[status])
	}
	return nil
}

// FormatDashboard formats the dashboard as plain text
func (f *PlainFormatter) FormatDashboard(d Dashboard) error {
	_, _ = fmt.Fprintln(f.writer, "PRD MANAGEMENT SYSTEM - DASHBOARD")
	if err := f.FormatAnalytics(d.Analytics, d.Completion); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(f.writer, "Needs Attention:")
	for _, prd := range d.Attention {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", prd)
	}

	_, _ = fmt.Fprintln(f.writer, "Recent PRDs:")
	for _, prd := range d.Recent {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", prd)
	}
	return nil
}

// FormatMessage prints a confirmation line
func (f *PlainFormatter) FormatMessage(message string) error {
	_, _ = fmt.Fprintln(f.writer, message)
	return nil
}

// FormatError formats an error as plain text
func (f *PlainFormatter) FormatError(err error) error {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		_, _ = fmt.Fprintf(f.writer, "Error: %s\n", cliErr.Message)
		if cliErr.Details != "" {
			_, _ = fmt.Fprintf(f.writer, "Details: %s\n", cliErr.Details)
		}
		return nil
	}
	_, _ = fmt.Fprintf(f.writer, "Error: %s\n", err.Error())
	return nil
}
