// Package report renders PRD collections and their analytics into
// document formats (Markdown, HTML, CSV and YAML).
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"prd-manager/internal/domain/entities"
)

// Format identifies an output document type
type Format string

// Supported formats
const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatCSV      Format = "csv"
	FormatYAML     Format = "yaml"
)

// Formats lists every format Render accepts
func Formats() []Format {
	return []Format{FormatMarkdown, FormatHTML, FormatCSV, FormatYAML}
}

// ParseFormat resolves a format name or common file extension
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported report format: %s (valid: markdown, html, csv, yaml)", s)
	}
}

// Source is the read side of the PRD manager a report is built from
type Source interface {
	GetAllPRDs() []*entities.PRD
	GenerateAnalytics() entities.Analytics
	GetCompletionStats() entities.CompletionStats
	GetStatusProgressReport() map[entities.Status]float64
	GetPRDsNeedingAttention() []*entities.PRD
}

// Report is a point-in-time view of a PRD collection
type Report struct {
	Title       string
	GeneratedAt time.Time
	PRDs        []*entities.PRD
	Analytics   entities.Analytics
	Completion  entities.CompletionStats
	Progress    map[entities.Status]float64
	Attention   []*entities.PRD
}

// Build collects everything a report needs from src
func Build(src Source, title string) Report {
	analytics := src.GenerateAnalytics()
	return Report{
		Title:       title,
		GeneratedAt: analytics.GeneratedAt,
		PRDs:        src.GetAllPRDs(),
		Analytics:   analytics,
		Completion:  src.GetCompletionStats(),
		Progress:    src.GetStatusProgressReport(),
		Attention:   src.GetPRDsNeedingAttention(),
	}
}

// Renderer writes reports in the supported formats
type Renderer struct {
	markdown goldmark.Markdown
}

// NewRenderer creates a renderer with GitHub-flavored Markdown tables
func NewRenderer() *Renderer {
	return &Renderer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Render writes rep to w in the requested format
func (r *Renderer) Render(w io.Writer, format Format, rep Report) error {
	switch format {
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(rep))
		return err
	case FormatHTML:
		return r.renderHTML(w, rep)
	case FormatCSV:
		return renderCSV(w, rep.PRDs)
	case FormatYAML:
		return renderYAML(w, rep)
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// Markdown renders the report as a Markdown document
func Markdown(rep Report) string {
	var md strings.Builder

	fmt.Fprintf(&md, "# %s\n\n", escapeMarkdown(rep.Title))
	fmt.Fprintf(&md, "Generated on: %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&md, "- **Total PRDs:** %d\n", rep.Analytics.TotalPRDs)
	fmt.Fprintf(&md, "- **Average completion:** %.1f%%\n", rep.Analytics.AverageCompletion)
	fmt.Fprintf(&md, "- **Completion range:** %d%% to %d%%\n\n", rep.Completion.Min, rep.Completion.Max)

	md.WriteString("## Status Overview\n\n")
	md.WriteString("| Status | PRDs | Average completion |\n")
	md.WriteString("|---|---:|---:|\n")
	for _, status := range entities.AllStatuses() {
		fmt.Fprintf(&md, "| %s %s | %d | %.1f%% |\n",
			status.Icon(), status.DisplayName(),
			rep.Analytics.StatusCounts[status.DisplayName()], rep.Progress[status])
	}
	md.WriteString("\n")

	md.WriteString("## Priorities\n\n")
	md.WriteString("| Priority | PRDs |\n")
	md.WriteString("|---|---:|\n")
	for _, priority := range entities.AllPriorities() {
		fmt.Fprintf(&md, "| %s | %d |\n", priority.DisplayName(), rep.Analytics.PriorityCounts[priority.DisplayName()])
	}
	md.WriteString("\n")

	if tags := rep.Analytics.MostUsedTags(10); len(tags) > 0 {
		md.WriteString("## Most Used Tags\n\n")
		for _, entry := range tags {
			fmt.Fprintf(&md, "- `%s` (%d)\n", entry.Key, entry.Count)
		}
		md.WriteString("\n")
	}

	if contributors := rep.Analytics.TopContributors(10); len(contributors) > 0 {
		md.WriteString("## Top Contributors\n\n")
		for _, entry := range contributors {
			fmt.Fprintf(&md, "- %s (%d)\n", escapeMarkdown(entry.Key), entry.Count)
		}
		md.WriteString("\n")
	}

	md.WriteString("## Needs Attention\n\n")
	if len(rep.Attention) == 0 {
		md.WriteString("Nothing needs attention.\n\n")
	}
	for _, prd := range rep.Attention {
		fmt.Fprintf(&md, "- %s **%s** (`%s`): %s, %s, %s\n",
			prd.StatusIcon(), escapeMarkdown(prd.Title), prd.ID,
			prd.Status.DisplayName(), prd.Priority.DisplayName(), prd.ProgressDescription())
	}
	if len(rep.Attention) > 0 {
		md.WriteString("\n")
	}

	groups := make(map[entities.Status][]*entities.PRD)
	for _, prd := range rep.PRDs {
		groups[prd.Status] = append(groups[prd.Status], prd)
	}

	md.WriteString("## PRDs\n\n")
	for _, status := range entities.AllStatuses() {
		prds := groups[status]
		if len(prds) == 0 {
			continue
		}

		fmt.Fprintf(&md, "### %s %s (%d)\n\n", status.Icon(), status.DisplayName(), len(prds))
		md.WriteString("| ID | Title | Priority | Completion | Author | Tags |\n")
		md.WriteString("|---|---|---|---:|---|---|\n")
		for _, prd := range prds {
			fmt.Fprintf(&md, "| `%s` | %s | %s | %d%% | %s | %s |\n",
				prd.ID,
				escapeMarkdown(prd.Title),
				prd.Priority.DisplayName(),
				prd.CompletionPercentage,
				escapeMarkdown(prd.Author),
				escapeMarkdown(strings.Join(prd.Tags, ", ")))
		}
		md.WriteString("\n")
	}

	return md.String()
}

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { border-collapse: collapse; margin: 10px 0; }
        th, td { border: 1px solid #ddd; padding: 6px 10px; }
        th { background: #f0f0f0; }
        code { background: #f6f8fa; padding: 1px 4px; border-radius: 3px; }
    </style>
</head>
<body>
`

func (r *Renderer) renderHTML(w io.Writer, rep Report) error {
	var body bytes.Buffer
	if err := r.markdown.Convert([]byte(Markdown(rep)), &body); err != nil {
		return fmt.Errorf("failed to convert markdown: %w", err)
	}

	if _, err := fmt.Fprintf(w, htmlHead, html.EscapeString(rep.Title)); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

// CSVHeader is the column order of CSV output
var CSVHeader = []string{
	"id", "title", "description", "author", "status", "priority",
	"completion_percentage", "tags", "created_at", "updated_at",
}

func renderCSV(w io.Writer, prds []*entities.PRD) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}

	for _, prd := range prds {
		record := []string{
			prd.ID,
			prd.Title,
			prd.Description,
			prd.Author,
			prd.Status.String(),
			prd.Priority.String(),
			strconv.Itoa(prd.CompletionPercentage),
			strings.Join(prd.Tags, ";"),
			prd.CreatedAt.Format(time.RFC3339),
			prd.UpdatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

type yamlSummary struct {
	TotalPRDs         int                `yaml:"total_prds"`
	AverageCompletion float64            `yaml:"average_completion"`
	Completion        yamlCompletion     `yaml:"completion"`
	StatusCounts      map[string]int     `yaml:"status_counts"`
	PriorityCounts    map[string]int     `yaml:"priority_counts"`
	Progress          map[string]float64 `yaml:"status_progress"`
	NeedsAttention    []string           `yaml:"needs_attention"`
}

type yamlCompletion struct {
	Min     int     `yaml:"min"`
	Max     int     `yaml:"max"`
	Average float64 `yaml:"average"`
}

type yamlDocument struct {
	Title       string          `yaml:"title"`
	GeneratedAt time.Time       `yaml:"generated_at"`
	Summary     yamlSummary     `yaml:"summary"`
	PRDs        []*entities.PRD `yaml:"prds"`
}

func renderYAML(w io.Writer, rep Report) error {
	progress := make(map[string]float64, len(rep.Progress))
	for status, avg := range rep.Progress {
		progress[status.String()] = avg
	}

	attention := make([]string, 0, len(rep.Attention))
	for _, prd := range rep.Attention {
		attention = append(attention, prd.ID)
	}

	doc := yamlDocument{
		Title:       rep.Title,
		GeneratedAt: rep.GeneratedAt,
		Summary: yamlSummary{
			TotalPRDs:         rep.Analytics.TotalPRDs,
			AverageCompletion: rep.Analytics.AverageCompletion,
			Completion: yamlCompletion{
				Min:     rep.Completion.Min,
				Max:     rep.Completion.Max,
				Average: rep.Completion.Average,
			},
			StatusCounts:   rep.Analytics.StatusCounts,
			PriorityCounts: rep.Analytics.PriorityCounts,
			Progress:       progress,
			NeedsAttention: attention,
		},
		PRDs: rep.PRDs,
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return encoder.Close()
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
