package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"aizily/backend/internal/domain"
)

// RecurringLookahead bounds how far an unbounded-looking series may reach.
const RecurringLookahead = 365 * 24 * time.Hour

type AppointmentRepository interface {
	Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	List(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	Delete(ctx context.Context, userID string, appointmentID uuid.UUID) error

	CreateRecurringSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error)
	ListOccurrences(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.RecurringOccurrence, error)
	SkipOccurrence(ctx context.Context, userID string, seriesID uuid.UUID, occurrenceStart time.Time) error
	DeleteRecurringSeries(ctx context.Context, userID string, seriesID uuid.UUID) error
}
