package entities

import (
	"errors"
	"fmt"
	"reflect"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// PRD represents a single Product Requirements Document record
type PRD struct {
	ID                   string    `json:"id" yaml:"id" validate:"required"`
	Title                string    `json:"title" yaml:"title"`
	Description          string    `json:"description" yaml:"description"`
	Author               string    `json:"author" yaml:"author"`
	Status               Status    `json:"status" yaml:"status" validate:"gte=0,lte=6"`
	Priority             Priority  `json:"priority" yaml:"priority" validate:"gte=1,lte=4"`
	CreatedAt            time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" yaml:"updated_at" validate:"gtefield=CreatedAt"`
	CompletionPercentage int       `json:"completion_percentage" yaml:"completion_percentage" validate:"gte=0,lte=100"`
	Tags                 []string  `json:"tags" yaml:"tags" validate:"dive,required,lowercase"`
}

// NewPRD creates a PRD with default values: Draft status, Medium
// priority, 0% completion and no tags. The caller owns id uniqueness.
func NewPRD(id, title, description, author string) *PRD {
	now := timestamp()
	return &PRD{
		ID:          id,
		Title:       title,
		Description: description,
		Author:      author,
		Status:      StatusDraft,
		Priority:    PriorityMedium,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        make([]string, 0),
	}
}

// GenerateID returns a PRD identifier made of the current Unix time in
// milliseconds and a random disambiguator in [1000, 9999).
func GenerateID() string {
	return fmt.Sprintf("PRD-%d-%d", time.Now().UnixMilli(), rand.IntN(8999)+1000)
}

// Validate checks if PRD fields meet business rules
func (p *PRD) Validate() error {
	return validate.Struct(p)
}

// ValidationField returns the JSON name of the first field rejected by
// Validate, or "" when err is not a validation failure.
func ValidationField(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return errs[0].Field()
	}
	return ""
}

// touch refreshes UpdatedAt. Every mutation goes through it.
func (p *PRD) touch() {
	p.UpdatedAt = timestamp()
}

// UpdateStatus sets the status unconditionally. No transition graph is
// enforced.
func (p *PRD) UpdateStatus(status Status) {
	p.Status = status
	p.touch()
}

// SetPriority sets the priority unconditionally.
func (p *PRD) SetPriority(priority Priority) {
	p.Priority = priority
	p.touch()
}

// SetCompletionPercentage clamps percentage into [0, 100] and stores it.
// UpdatedAt is refreshed even when the stored value does not change.
func (p *PRD) SetCompletionPercentage(percentage int) {
	p.CompletionPercentage = ClampCompletion(percentage)
	p.touch()
}

// AddTag normalizes the tag and appends it. Blank and duplicate tags are
// ignored without touching UpdatedAt.
func (p *PRD) AddTag(tag string) {
	tag = NormalizeTag(tag)
	if tag == "" || p.hasNormalizedTag(tag) {
		return
	}

	p.Tags = append(p.Tags, tag)
	p.touch()
}

// HasTag checks if the PRD carries the tag after normalization
func (p *PRD) HasTag(tag string) bool {
	tag = NormalizeTag(tag)
	if tag == "" {
		return false
	}
	return p.hasNormalizedTag(tag)
}

func (p *PRD) hasNormalizedTag(tag string) bool {
	for _, existing := range p.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// UpdateDetails replaces the free-text fields.
func (p *PRD) UpdateDetails(title, description, author string) {
	p.Title = title
	p.Description = description
	p.Author = author
	p.touch()
}

// ProgressDescription returns e.g. "65% complete".
func (p *PRD) ProgressDescription() string {
	return fmt.Sprintf("%d%% complete", p.CompletionPercentage)
}

// StatusIcon returns the glyph for the current status.
func (p *PRD) StatusIcon() string {
	return p.Status.Icon()
}

// NeedsAttention reports whether the PRD matches the triage rule: in
// development below 50%, critical but still a draft, or in testing
// below 80%.
func (p *PRD) NeedsAttention() bool {
	switch {
	case p.Status == StatusInDevelopment && p.CompletionPercentage < 50:
		return true
	case p.Priority == PriorityCritical && p.Status == StatusDraft:
		return true
	case p.Status == StatusTesting && p.CompletionPercentage < 80:
		return true
	default:
		return false
	}
}

// String is meant for logs and dashboards, not serialization.
func (p *PRD) String() string {
	return fmt.Sprintf("PRD{ID='%s', Title='%s', Status=%s, Completion=%d%%}",
		p.ID, p.Title, p.Status.DisplayName(), p.CompletionPercentage)
}

// ClampCompletion bounds a completion percentage to [0, 100].
func ClampCompletion(percentage int) int {
	return max(0, min(100, percentage))
}

// NormalizeTag trims and lowercases a tag.
func NormalizeTag(tag string) string {
	return FoldText(strings.TrimSpace(tag))
}

// FoldText lowercases text for case-insensitive comparison. A Caser is
// stateful, so one is built per call.
func FoldText(s string) string {
	return cases.Lower(language.Und).String(s)
}

func timestamp() time.Time {
	return time.Now().UTC()
}
