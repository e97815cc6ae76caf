package bug

import (
	"slices"
	"strings"
	"time"

	"github.com/zulandar/bugboard/internal/models"
)

// Draft is a client-assembled candidate bug awaiting validation. ID,
// timestamps, status and comments are assigned by the store.
type Draft struct {
	Title             string          `json:"title" validate:"notblank"`
	Description       string          `json:"description" validate:"notblank"`
	Priority          models.Priority `json:"priority" validate:"oneof=low medium high critical"`
	Category          string          `json:"category" validate:"notblank"`
	Assignee          string          `json:"assignee"`
	Reporter          string          `json:"reporter"`
	Environment       string          `json:"environment"`
	Version           string          `json:"version"`
	DueDate           *time.Time      `json:"dueDate,omitempty"`
	Tags              []string        `json:"tags"`
	Attachments       []string        `json:"attachments"`
	ReproductionSteps []string        `json:"reproductionSteps" validate:"min=1"`
}

// NewDraft returns an empty draft shaped like a fresh report form: medium
// priority and a single blank reproduction step.
func NewDraft() Draft {
	return Draft{
		Priority:          models.PriorityMedium,
		ReproductionSteps: []string{""},
		Tags:              []string{},
	}
}

// AddTag appends a trimmed tag. Blank tags and tags already present are ignored.
func (d *Draft) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" || slices.Contains(d.Tags, tag) {
		return
	}
	d.Tags = append(d.Tags, tag)
}

// RemoveTag deletes a tag if present.
func (d *Draft) RemoveTag(tag string) {
	d.Tags = slices.DeleteFunc(d.Tags, func(t string) bool { return t == tag })
}

// AddStep appends a reproduction step. Empty steps are allowed.
func (d *Draft) AddStep(step string) {
	d.ReproductionSteps = append(d.ReproductionSteps, step)
}

// SetStep replaces the step at index i. Out-of-range indexes are ignored.
func (d *Draft) SetStep(i int, step string) {
	if i < 0 || i >= len(d.ReproductionSteps) {
		return
	}
	d.ReproductionSteps[i] = step
}

// RemoveStep deletes the step at index i. Out-of-range indexes are ignored.
func (d *Draft) RemoveStep(i int) {
	if i < 0 || i >= len(d.ReproductionSteps) {
		return
	}
	d.ReproductionSteps = slices.Delete(d.ReproductionSteps, i, i+1)
}

// withDefaults returns a copy with an unset priority defaulted to medium.
func (d Draft) withDefaults() Draft {
	if d.Priority == "" {
		d.Priority = models.PriorityMedium
	}
	return d
}

// draftFromBug rebuilds the editable fields of a stored bug as a draft.
func draftFromBug(b models.Bug) Draft {
	c := b.Clone()
	return Draft{
		Title:             c.Title,
		Description:       c.Description,
		Priority:          c.Priority,
		Category:          c.Category,
		Assignee:          c.Assignee,
		Reporter:          c.Reporter,
		Environment:       c.Environment,
		Version:           c.Version,
		DueDate:           c.DueDate,
		Tags:              c.Tags,
		Attachments:       c.Attachments,
		ReproductionSteps: c.ReproductionSteps,
	}
}

// Patch holds field edits for an existing bug. Nil fields are left unchanged.
type Patch struct {
	Title             *string          `json:"title,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Priority          *models.Priority `json:"priority,omitempty"`
	Category          *string          `json:"category,omitempty"`
	Assignee          *string          `json:"assignee,omitempty"`
	Environment       *string          `json:"environment,omitempty"`
	Version           *string          `json:"version,omitempty"`
	DueDate           *time.Time       `json:"dueDate,omitempty"`
	ClearDueDate      bool             `json:"clearDueDate,omitempty"`
	Tags              *[]string        `json:"tags,omitempty"`
	Attachments       *[]string        `json:"attachments,omitempty"`
	ReproductionSteps *[]string        `json:"reproductionSteps,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Category == nil && p.Assignee == nil && p.Environment == nil &&
		p.Version == nil && p.DueDate == nil && !p.ClearDueDate &&
		p.Tags == nil && p.Attachments == nil && p.ReproductionSteps == nil
}

// applyPatch validates the patched fields and returns the edited bug with
// UpdatedAt bumped to now. The input bug is not modified.
func applyPatch(b models.Bug, p Patch, now time.Time) (models.Bug, error) {
	d := draftFromBug(b)
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Priority != nil {
		d.Priority = *p.Priority
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Assignee != nil {
		d.Assignee = *p.Assignee
	}
	if p.Environment != nil {
		d.Environment = *p.Environment
	}
	if p.Version != nil {
		d.Version = *p.Version
	}
	if p.DueDate != nil {
		d.DueDate = p.DueDate
	}
	if p.ClearDueDate {
		d.DueDate = nil
	}
	if p.Tags != nil {
		d.Tags = *p.Tags
	}
	if p.Attachments != nil {
		d.Attachments = *p.Attachments
	}
	if p.ReproductionSteps != nil {
		d.ReproductionSteps = *p.ReproductionSteps
	}

	edited, err := newBug(d, now)
	if err != nil {
		return models.Bug{}, err
	}

	out := b.Clone()
	out.Title = edited.Title
	out.Description = edited.Description
	out.Priority = edited.Priority
	out.Category = edited.Category
	out.Assignee = edited.Assignee
	out.Environment = edited.Environment
	out.Version = edited.Version
	out.DueDate = edited.DueDate
	out.Tags = edited.Tags
	out.Attachments = edited.Attachments
	out.ReproductionSteps = edited.ReproductionSteps
	if err := touch(&out, now); err != nil {
		return models.Bug{}, err
	}
	return out, nil
}
