package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/termenv"

	"prd-manager/internal/domain/entities"
)

const progressBarWidth = 20

// Palette colors table output. Priorities use their hex tokens through
// lipgloss; headers and status lines use fatih/color.
type Palette struct {
	renderer *lipgloss.Renderer
	enabled  bool

	header  *color.Color
	success *color.Color
	warning *color.Color
	failure *color.Color
	muted   *color.Color
}

// NewPalette creates a palette for w. scheme is one of auto, always or never.
func NewPalette(w io.Writer, scheme string) *Palette {
	renderer := lipgloss.NewRenderer(w)

	switch strings.ToLower(scheme) {
	case "always":
		renderer.SetColorProfile(termenv.TrueColor)
	case "never":
		renderer.SetColorProfile(termenv.Ascii)
	}

	p := &Palette{
		renderer: renderer,
		enabled:  renderer.ColorProfile() != termenv.Ascii,
		header:   color.New(color.FgCyan, color.Bold),
		success:  color.New(color.FgGreen),
		warning:  color.New(color.FgYellow),
		failure:  color.New(color.FgRed, color.Bold),
		muted:    color.New(color.FgHiBlack),
	}

	for _, c := range []*color.Color{p.header, p.success, p.warning, p.failure, p.muted} {
		if p.enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

// Enabled reports whether escape sequences are emitted
func (p *Palette) Enabled() bool {
	return p.enabled
}

// Header renders a section title
func (p *Palette) Header(s string) string {
	return p.header.Sprint(s)
}

// Success renders a confirmation line
func (p *Palette) Success(s string) string {
	return p.success.Sprint(s)
}

// Warning renders a warning line
func (p *Palette) Warning(s string) string {
	return p.warning.Sprint(s)
}

// Failure renders an error line
func (p *Palette) Failure(s string) string {
	return p.failure.Sprint(s)
}

// Muted renders secondary text
func (p *Palette) Muted(s string) string {
	return p.muted.Sprint(s)
}

// Priority renders a priority name in its color token
func (p *Palette) Priority(priority entities.Priority) string {
	style := p.renderer.NewStyle().Foreground(lipgloss.Color(priority.ColorCode()))
	return style.Render(priority.DisplayName())
}

// Status renders the status icon and label, colored by workflow stage
func (p *Palette) Status(status entities.Status) string {
	label := status.Icon() + " " + status.DisplayName()

	switch status {
	case entities.StatusImplemented, entities.StatusApproved:
		return p.success.Sprint(label)
	case entities.StatusInDevelopment, entities.StatusTesting:
		return p.warning.Sprint(label)
	case entities.StatusArchived:
		return p.muted.Sprint(label)
	default:
		return label
	}
}

// Progress renders a completion bar such as "[██████░░░░] 60%"
func (p *Palette) Progress(percentage int) string {
	percentage = entities.ClampCompletion(percentage)
	filled := percentage * progressBarWidth / 100

	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
	text := fmt.Sprintf("[%s] %3d%%", bar, percentage)

	switch {
	case percentage >= 80:
		return p.success.Sprint(text)
	case percentage >= 50:
		return p.warning.Sprint(text)
	default:
		return text
	}
}
