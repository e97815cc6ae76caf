package bug

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/zulandar/bugboard/internal/models"
)

func TestNewDraft(t *testing.T) {
	d := NewDraft()
	if d.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want medium", d.Priority)
	}
	if !reflect.DeepEqual(d.ReproductionSteps, []string{""}) {
		t.Errorf("ReproductionSteps = %q, want one blank step", d.ReproductionSteps)
	}
	if d.Tags == nil || len(d.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty", d.Tags)
	}
}

func TestDraft_Tags(t *testing.T) {
	d := NewDraft()
	d.AddTag(" mobile ")
	d.AddTag("mobile")
	d.AddTag("   ")
	d.AddTag("login")
	if want := []string{"mobile", "login"}; !reflect.DeepEqual(d.Tags, want) {
		t.Fatalf("Tags = %q, want %q", d.Tags, want)
	}

	d.RemoveTag("mobile")
	d.RemoveTag("absent")
	if want := []string{"login"}; !reflect.DeepEqual(d.Tags, want) {
		t.Errorf("after RemoveTag Tags = %q, want %q", d.Tags, want)
	}
}

func TestDraft_Steps(t *testing.T) {
	d := NewDraft()
	d.SetStep(0, "Open the app")
	d.AddStep("Tap login")
	d.AddStep("")
	if want := []string{"Open the app", "Tap login", ""}; !reflect.DeepEqual(d.ReproductionSteps, want) {
		t.Fatalf("steps = %q, want %q", d.ReproductionSteps, want)
	}

	d.SetStep(9, "ignored")
	d.SetStep(-1, "ignored")
	d.RemoveStep(1)
	d.RemoveStep(7)
	if want := []string{"Open the app", ""}; !reflect.DeepEqual(d.ReproductionSteps, want) {
		t.Errorf("steps = %q, want %q", d.ReproductionSteps, want)
	}
}

func TestPatch_Empty(t *testing.T) {
	if !(Patch{}).Empty() {
		t.Error("zero Patch should be empty")
	}
	title := "x"
	if (Patch{Title: &title}).Empty() {
		t.Error("Patch with Title should not be empty")
	}
	if (Patch{ClearDueDate: true}).Empty() {
		t.Error("Patch with ClearDueDate should not be empty")
	}
}

func TestApplyPatch(t *testing.T) {
	created := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	due := created.Add(48 * time.Hour)
	orig, err := newBug(validDraft(), created)
	if err != nil {
		t.Fatalf("newBug: %v", err)
	}
	orig.ID = "bug-00001"
	orig.Status = models.StatusTesting
	orig.DueDate = &due
	orig.Comments = []models.Comment{{ID: "c1", BugID: "bug-00001", Content: "hi", CreatedAt: created}}

	title := "  Crash on save as  "
	prio := models.PriorityCritical
	tags := []string{"editor", "editor", " io "}
	now := created.Add(time.Hour)

	got, err := applyPatch(orig, Patch{Title: &title, Priority: &prio, Tags: &tags, ClearDueDate: true}, now)
	if err != nil {
		t.Fatalf("applyPatch: %v", err)
	}
	if got.Title != "Crash on save as" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Priority != models.PriorityCritical {
		t.Errorf("Priority = %q", got.Priority)
	}
	if want := []string{"editor", "io"}; !reflect.DeepEqual(got.Tags, want) {
		t.Errorf("Tags = %q, want %q", got.Tags, want)
	}
	if got.DueDate != nil {
		t.Errorf("DueDate = %v, want cleared", got.DueDate)
	}
	if got.Status != models.StatusTesting {
		t.Errorf("Status = %q, want untouched testing", got.Status)
	}
	if got.ID != orig.ID || !got.CreatedAt.Equal(created) || len(got.Comments) != 1 {
		t.Errorf("identity fields changed: %+v", got)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, now)
	}
	if orig.Title != "Crash on save" || orig.DueDate == nil {
		t.Error("applyPatch modified its input")
	}
}

func TestApplyPatch_Invalid(t *testing.T) {
	created := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	orig, err := newBug(validDraft(), created)
	if err != nil {
		t.Fatalf("newBug: %v", err)
	}

	blank := " "
	_, err = applyPatch(orig, Patch{Category: &blank}, created.Add(time.Minute))
	var ve *ValidationError
	if !errors.As(err, &ve) || !ve.Has("category") {
		t.Errorf("applyPatch(blank category) = %v, want category validation error", err)
	}

	title := "ok"
	_, err = applyPatch(orig, Patch{Title: &title}, created.Add(-time.Minute))
	if !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("applyPatch(backwards clock) = %v, want ErrInvariantViolation", err)
	}
}
