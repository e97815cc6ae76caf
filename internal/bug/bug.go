// Package bug provides bug lifecycle operations: draft validation, the
// repository contract, and its in-memory and database-backed stores.
package bug

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/zulandar/bugboard/internal/models"
)

var (
	// ErrNotFound is returned when no bug has the requested ID.
	ErrNotFound = errors.New("bug: not found")

	// ErrInvariantViolation signals a mutation that would break a record
	// invariant (UpdatedAt before CreatedAt). It indicates a defect, not bad input.
	ErrInvariantViolation = errors.New("bug: invariant violation")
)

// Store owns the canonical bug collection.
type Store interface {
	// List returns every bug in insertion order.
	List(ctx context.Context) ([]models.Bug, error)
	Get(ctx context.Context, id string) (*models.Bug, error)
	Create(ctx context.Context, d Draft) (*models.Bug, error)
	AppendComment(ctx context.Context, bugID, author, content string) (*models.Comment, error)
	SetStatus(ctx context.Context, id string, status models.Status) (*models.Bug, error)
	Update(ctx context.Context, id string, p Patch) (*models.Bug, error)
}

// Actions maps the detail page quick actions to the status they apply.
var Actions = map[string]models.Status{
	"start":   models.StatusInProgress,
	"test":    models.StatusTesting,
	"resolve": models.StatusResolved,
	"close":   models.StatusClosed,
	"reopen":  models.StatusOpen,
}

// ActionStatus resolves a quick action name to its target status.
func ActionStatus(action string) (models.Status, error) {
	s, ok := Actions[action]
	if !ok {
		return "", fmt.Errorf("bug: unknown action %q", action)
	}
	return s, nil
}

// GenerateID creates a bug ID in bug-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("bug: generate ID: %w", err)
	}
	return "bug-" + hex.EncodeToString(b)[:5], nil
}

// generateUniqueID generates an ID and retries once on collision.
func generateUniqueID(exists func(id string) (bool, error)) (string, error) {
	for i := 0; i < 2; i++ {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		taken, err := exists(id)
		if err != nil {
			return "", fmt.Errorf("bug: check ID uniqueness: %w", err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("bug: failed to generate unique ID after retries")
}

// notFound wraps ErrNotFound with the offending ID.
func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// newBug validates a draft and builds the record the store will insert.
// ID and Seq are left for the store to assign.
func newBug(d Draft, now time.Time) (models.Bug, error) {
	d = d.withDefaults()
	if err := Validate(d); err != nil {
		return models.Bug{}, err
	}

	b := models.Bug{
		Title:             strings.TrimSpace(d.Title),
		Description:       strings.TrimSpace(d.Description),
		Status:            models.StatusOpen,
		Priority:          d.Priority,
		Category:          strings.TrimSpace(d.Category),
		Assignee:          strings.TrimSpace(d.Assignee),
		Reporter:          strings.TrimSpace(d.Reporter),
		Tags:              normalizeTags(d.Tags),
		Attachments:       nonNil(d.Attachments),
		ReproductionSteps: nonNil(d.ReproductionSteps),
		Environment:       strings.TrimSpace(d.Environment),
		Version:           strings.TrimSpace(d.Version),
		CreatedAt:         now,
		UpdatedAt:         now,
		Comments:          []models.Comment{},
	}
	if d.DueDate != nil {
		due := *d.DueDate
		b.DueDate = &due
	}
	return b, nil
}

// newComment validates comment input and builds a comment stamped with now.
func newComment(bugID, author, content string, now time.Time) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, &ValidationError{Fields: []FieldError{
			{Field: "content", Reason: "is required"},
		}}
	}
	return models.Comment{
		ID:        uuid.NewString(),
		BugID:     bugID,
		Author:    strings.TrimSpace(author),
		Content:   content,
		CreatedAt: now,
	}, nil
}

// touch bumps UpdatedAt, refusing to move it before CreatedAt.
func touch(b *models.Bug, now time.Time) error {
	if now.Before(b.CreatedAt) {
		return fmt.Errorf("%w: %s updatedAt %s before createdAt %s",
			ErrInvariantViolation, b.ID, now.Format(time.RFC3339Nano), b.CreatedAt.Format(time.RFC3339Nano))
	}
	b.UpdatedAt = now
	return nil
}

// normalizeTags trims tags, drops empty ones and removes duplicates keeping
// the first occurrence.
func normalizeTags(tags []string) []string {
	trimmed := lo.FilterMap(tags, func(t string, _ int) (string, bool) {
		t = strings.TrimSpace(t)
		return t, t != ""
	})
	return lo.Uniq(trimmed)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
