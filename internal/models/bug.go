package models

import "time"

// Bug is the core tracked issue record.
type Bug struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	Seq               int64      `json:"-" gorm:"index"`
	Title             string     `json:"title" gorm:"not null"`
	Description       string     `json:"description" gorm:"type:text"`
	Status            Status     `json:"status" gorm:"size:16;default:open;index"`
	Priority          Priority   `json:"priority" gorm:"size:16;default:medium;index"`
	Category          string     `json:"category" gorm:"size:64"`
	Assignee          string     `json:"assignee" gorm:"size:64"`
	Reporter          string     `json:"reporter" gorm:"size:64"`
	Tags              []string   `json:"tags" gorm:"serializer:json;type:text"`
	Attachments       []string   `json:"attachments" gorm:"serializer:json;type:text"`
	ReproductionSteps []string   `json:"reproductionSteps" gorm:"serializer:json;type:text"`
	Environment       string     `json:"environment" gorm:"size:256"`
	Version           string     `json:"version" gorm:"size:64"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	CreatedAt         time.Time  `json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time  `json:"updatedAt" gorm:"autoUpdateTime:false"`

	Comments []Comment `json:"comments" gorm:"foreignKey:BugID"`
}

// Comment is a note attached to a bug. Comments are append-only.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	BugID     string    `json:"bugId" gorm:"size:32;index"`
	Author    string    `json:"author" gorm:"size:64"`
	Content   string    `json:"content" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime:false"`
}

// Unassigned reports whether the bug has no assignee.
func (b *Bug) Unassigned() bool {
	return b.Assignee == ""
}

// Clone returns a deep copy of the bug, including its slices and due date.
func (b Bug) Clone() Bug {
	c := b
	c.Tags = cloneStrings(b.Tags)
	c.Attachments = cloneStrings(b.Attachments)
	c.ReproductionSteps = cloneStrings(b.ReproductionSteps)
	if b.DueDate != nil {
		d := *b.DueDate
		c.DueDate = &d
	}
	if b.Comments != nil {
		c.Comments = make([]Comment, len(b.Comments))
		copy(c.Comments, b.Comments)
	}
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
