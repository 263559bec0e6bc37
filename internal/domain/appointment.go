package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Category string

const (
	CategoryLesson   Category = "lesson"
	CategoryExam     Category = "exam"
	CategoryStudy    Category = "study"
	CategoryMeeting  Category = "meeting"
	CategoryPersonal Category = "personal"
	CategoryOther    Category = "other"
)

// NormalizeCategory maps free-form input onto the known categories.
func NormalizeCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryLesson, CategoryExam, CategoryStudy, CategoryMeeting, CategoryPersonal:
		return c
	default:
		return CategoryOther
	}
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    string    `bun:"user_id,notnull"`
	Title     string    `bun:"title,notnull"`
	Notes     string    `bun:"notes"`
	Category  Category  `bun:"category,notnull"`
	StartTime time.Time `bun:"start_time,notnull"`
	EndTime   time.Time `bun:"end_time,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stamp(query, &a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// stamp fills generated columns for inserts and bumps updated_at on updates.
func stamp(query bun.Query, id *uuid.UUID, createdAt, updatedAt *time.Time) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if *id == uuid.Nil {
			v, err := uuid.NewV7()
			if err != nil {
				return err
			}
			*id = v
		}
		if createdAt.IsZero() {
			*createdAt = now
		}
		if updatedAt.IsZero() {
			*updatedAt = now
		}
	case *bun.UpdateQuery:
		*updatedAt = now
	}
	return nil
}
