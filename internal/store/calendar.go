package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"aizily/backend/internal/domain"
)

// CalendarTx is the set of operations available inside a per-user
// transaction. Implementations serialize transactions of the same user.
type CalendarTx interface {
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	DeleteAppointment(ctx context.Context, userID string, appointmentID uuid.UUID) error

	CreateRecurringSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error)
	GetRecurringSeries(ctx context.Context, userID string, seriesID uuid.UUID) (domain.RecurringSeries, error)
	AddExDate(ctx context.Context, seriesID uuid.UUID, exdate time.Time) error
	DeleteRecurringSeries(ctx context.Context, userID string, seriesID uuid.UUID) error
}
