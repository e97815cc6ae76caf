package bug

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/bugboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore is a Store backed by a GORM database. Each mutation and its
// UpdatedAt bump are committed in a single transaction.
type DBStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Store = (*DBStore)(nil)

// NewDBStore wraps a migrated database. A nil now uses time.Now.
func NewDBStore(db *gorm.DB, now func() time.Time) *DBStore {
	if now == nil {
		now = time.Now
	}
	return &DBStore{db: db, now: now}
}

func preloadComments(tx *gorm.DB) *gorm.DB {
	return tx.Order("created_at ASC")
}

// List returns all bugs in insertion order with their comments.
func (s *DBStore) List(ctx context.Context) ([]models.Bug, error) {
	var bugs []models.Bug
	if err := s.db.WithContext(ctx).
		Preload("Comments", preloadComments).
		Order("seq ASC").
		Find(&bugs).Error; err != nil {
		return nil, fmt.Errorf("bug: list: %w", err)
	}
	for i := range bugs {
		normalizeLoaded(&bugs[i])
	}
	return bugs, nil
}

// Get retrieves a bug by ID, preloading its comments.
func (s *DBStore) Get(ctx context.Context, id string) (*models.Bug, error) {
	b, err := load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create validates the draft and inserts it as the newest bug.
func (s *DBStore) Create(ctx context.Context, d Draft) (*models.Bug, error) {
	b, err := newBug(d, s.now())
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := generateUniqueID(func(id string) (bool, error) {
			var count int64
			if err := tx.Model(&models.Bug{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return false, err
			}
			return count > 0, nil
		})
		if err != nil {
			return err
		}

		var maxSeq int64
		if err := tx.Model(&models.Bug{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("bug: next seq: %w", err)
		}

		b.ID = id
		b.Seq = maxSeq + 1
		if err := tx.Omit(clause.Associations).Create(&b).Error; err != nil {
			return fmt.Errorf("bug: create: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// AppendComment inserts a comment and bumps the bug's UpdatedAt.
func (s *DBStore) AppendComment(ctx context.Context, bugID, author, content string) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := loadRow(tx, bugID)
		if err != nil {
			return err
		}

		now := s.now()
		c, err = newComment(bugID, author, content, now)
		if err != nil {
			return err
		}
		if err := touch(b, now); err != nil {
			return err
		}

		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("bug: add comment to %s: %w", bugID, err)
		}
		return bumpUpdatedAt(tx, bugID, b.UpdatedAt, nil)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SetStatus moves a bug to the given status.
func (s *DBStore) SetStatus(ctx context.Context, id string, status models.Status) (*models.Bug, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := loadRow(tx, id)
		if err != nil {
			return err
		}
		if err := touch(b, s.now()); err != nil {
			return err
		}
		return bumpUpdatedAt(tx, id, b.UpdatedAt, map[string]interface{}{"status": status})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Update applies field edits to a bug.
func (s *DBStore) Update(ctx context.Context, id string, p Patch) (*models.Bug, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := loadRow(tx, id)
		if err != nil {
			return err
		}
		edited, err := applyPatch(*b, p, s.now())
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&edited).Error; err != nil {
			return fmt.Errorf("bug: update %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Import inserts bugs with their existing IDs, timestamps and comments,
// appending them in order after any stored bugs. Bugs whose ID already exists
// are skipped.
func (s *DBStore) Import(ctx context.Context, bugs []models.Bug) (int, error) {
	imported := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&models.Bug{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("bug: import: next seq: %w", err)
		}
		for _, src := range bugs {
			var count int64
			if err := tx.Model(&models.Bug{}).Where("id = ?", src.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("bug: import %s: %w", src.ID, err)
			}
			if count > 0 {
				continue
			}
			if src.UpdatedAt.Before(src.CreatedAt) {
				return fmt.Errorf("%w: import %s: updatedAt before createdAt", ErrInvariantViolation, src.ID)
			}

			b := src.Clone()
			maxSeq++
			b.Seq = maxSeq
			comments := b.Comments
			b.Comments = nil
			if err := tx.Create(&b).Error; err != nil {
				return fmt.Errorf("bug: import %s: %w", src.ID, err)
			}
			for _, c := range comments {
				c.BugID = b.ID
				if err := tx.Create(&c).Error; err != nil {
					return fmt.Errorf("bug: import comment %s on %s: %w", c.ID, b.ID, err)
				}
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

// load reads a bug with its comments.
func load(tx *gorm.DB, id string) (*models.Bug, error) {
	var b models.Bug
	if err := tx.Preload("Comments", preloadComments).Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("bug: get %s: %w", id, err)
	}
	normalizeLoaded(&b)
	return &b, nil
}

// loadRow reads a bug without its comments, for use inside a mutation.
func loadRow(tx *gorm.DB, id string) (*models.Bug, error) {
	var b models.Bug
	if err := tx.Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("bug: get %s for update: %w", id, err)
	}
	return &b, nil
}

// bumpUpdatedAt writes updated_at together with any extra column updates.
func bumpUpdatedAt(tx *gorm.DB, id string, at time.Time, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = at
	if err := tx.Model(&models.Bug{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("bug: update %s: %w", id, err)
	}
	return nil
}

// normalizeLoaded replaces nil slices decoded from NULL columns with empty ones.
func normalizeLoaded(b *models.Bug) {
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if b.Attachments == nil {
		b.Attachments = []string{}
	}
	if b.ReproductionSteps == nil {
		b.ReproductionSteps = []string{}
	}
	if b.Comments == nil {
		b.Comments = []models.Comment{}
	}
}
