package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"aizily/backend/internal/domain"
	"aizily/backend/internal/retry"
	"aizily/backend/internal/store"
)

type AppointmentRepo struct {
	db       *bun.DB
	txPolicy retry.Policy
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	p := retry.DefaultPolicy()
	p.BaseDelay = 20 * time.Millisecond
	p.Retryable = isTransientTxError
	return &AppointmentRepo{db: db, txPolicy: p}
}

type calendarTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.InUserTransaction(ctx, appt.UserID, func(ctx context.Context, tx store.CalendarTx) error {
		a, err := tx.CreateAppointment(ctx, appt)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) List(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC, created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) Delete(ctx context.Context, userID string, appointmentID uuid.UUID) error {
	return r.InUserTransaction(ctx, userID, func(ctx context.Context, tx store.CalendarTx) error {
		return tx.DeleteAppointment(ctx, userID, appointmentID)
	})
}

func (r *AppointmentRepo) CreateRecurringSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error) {
	var out domain.RecurringSeries
	err := r.InUserTransaction(ctx, series.UserID, func(ctx context.Context, tx store.CalendarTx) error {
		s, err := tx.CreateRecurringSeries(ctx, series)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return domain.RecurringSeries{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) ListOccurrences(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.RecurringOccurrence, error) {
	var seriesRows []domain.RecurringSeries
	err := r.db.NewSelect().
		Model(&seriesRows).
		Where("user_id = ?", userID).
		Where("dtstart < ?", windowEnd).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return expandAll(seriesRows, windowStart, windowEnd)
}

func expandAll(seriesRows []domain.RecurringSeries, windowStart, windowEnd time.Time) ([]domain.RecurringOccurrence, error) {
	out := make([]domain.RecurringOccurrence, 0, len(seriesRows))
	for _, s := range seriesRows {
		occs, err := domain.ExpandOccurrences(s, windowStart, windowEnd)
		if err != nil {
			return nil, err
		}
		out = append(out, occs...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

// SkipOccurrence removes one occurrence from a series by recording an EXDATE.
// The occurrence must exist in the series.
func (r *AppointmentRepo) SkipOccurrence(ctx context.Context, userID string, seriesID uuid.UUID, occurrenceStart time.Time) error {
	return r.InUserTransaction(ctx, userID, func(ctx context.Context, tx store.CalendarTx) error {
		return skipOccurrence(ctx, tx, userID, seriesID, occurrenceStart)
	})
}

func skipOccurrence(ctx context.Context, tx store.CalendarTx, userID string, seriesID uuid.UUID, occurrenceStart time.Time) error {
	s, err := tx.GetRecurringSeries(ctx, userID, seriesID)
	if err != nil {
		return err
	}
	occs, err := domain.ExpandOccurrences(s, occurrenceStart, occurrenceStart.Add(time.Second))
	if err != nil {
		return err
	}
	for _, o := range occs {
		if o.StartTime.Equal(occurrenceStart) {
			return tx.AddExDate(ctx, seriesID, occurrenceStart.UTC())
		}
	}
	return store.ErrNotFound
}

func (r *AppointmentRepo) DeleteRecurringSeries(ctx context.Context, userID string, seriesID uuid.UUID) error {
	return r.InUserTransaction(ctx, userID, func(ctx context.Context, tx store.CalendarTx) error {
		return tx.DeleteRecurringSeries(ctx, userID, seriesID)
	})
}

// InUserTransaction runs fn in a transaction holding the user's advisory
// lock. Serialization failures and deadlocks are retried with backoff.
func (r *AppointmentRepo) InUserTransaction(ctx context.Context, userID string, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	return retry.Do(ctx, r.txPolicy, func(ctx context.Context) error {
		return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if err := lockUserCalendar(ctx, tx, userID); err != nil {
				return err
			}
			return fn(ctx, calendarTx{tx: tx})
		})
	})
}

func isTransientTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01":
		return true
	}
	return false
}

func lockUserCalendar(ctx context.Context, tx bun.Tx, userID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", userID).Exec(ctx)
	return err
}

func (r calendarTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt

	// ON CONFLICT keeps the transaction usable when an idempotency key is replayed.
	res, err := r.tx.NewInsert().
		Model(&m).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected > 0 {
		return m, nil
	}

	var existing domain.Appointment
	if err := r.tx.NewSelect().
		Model(&existing).
		Where("id = ?", m.ID).
		Limit(1).
		Scan(ctx); err != nil {
		return domain.Appointment{}, err
	}
	if !sameAppointment(existing, appt) {
		return domain.Appointment{}, store.ErrIdempotencyConflict
	}
	return existing, nil
}

func sameAppointment(a, b domain.Appointment) bool {
	return a.UserID == b.UserID &&
		a.Title == b.Title &&
		a.Notes == b.Notes &&
		a.Category == b.Category &&
		a.StartTime.Equal(b.StartTime) &&
		a.EndTime.Equal(b.EndTime)
}

func (r calendarTx) DeleteAppointment(ctx context.Context, userID string, appointmentID uuid.UUID) error {
	res, err := r.tx.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("user_id = ?", userID).
		Where("id = ?", appointmentID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r calendarTx) CreateRecurringSeries(ctx context.Context, series domain.RecurringSeries) (domain.RecurringSeries, error) {
	m := series
	if _, err := r.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.RecurringSeries{}, err
	}
	return m, nil
}

func (r calendarTx) GetRecurringSeries(ctx context.Context, userID string, seriesID uuid.UUID) (domain.RecurringSeries, error) {
	var s domain.RecurringSeries
	err := r.tx.NewSelect().
		Model(&s).
		Where("user_id = ?", userID).
		Where("id = ?", seriesID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RecurringSeries{}, store.ErrNotFound
		}
		return domain.RecurringSeries{}, err
	}
	return s, nil
}

func (r calendarTx) AddExDate(ctx context.Context, seriesID uuid.UUID, exdate time.Time) error {
	// A date that is already excluded matches no row, which is fine.
	_, err := r.tx.NewUpdate().
		Model((*domain.RecurringSeries)(nil)).
		Set("exdates = array_append(coalesce(exdates, '{}'), ?)", exdate).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", seriesID).
		Where("NOT (? = ANY(coalesce(exdates, '{}')))", exdate).
		Exec(ctx)
	return err
}

func (r calendarTx) DeleteRecurringSeries(ctx context.Context, userID string, seriesID uuid.UUID) error {
	res, err := r.tx.NewDelete().
		Model((*domain.RecurringSeries)(nil)).
		Where("user_id = ?", userID).
		Where("id = ?", seriesID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
