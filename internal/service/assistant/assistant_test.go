package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aizily/backend/internal/retry"
	"aizily/backend/internal/timegrid"
)

type fakeGenerator struct {
	calls   int
	fail    int
	system  string
	prompt  string
	failErr error
}

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	f.system = system
	f.prompt = prompt
	if f.calls <= f.fail {
		return "", f.failErr
	}
	return "  You have a lecture at 09:00.  ", nil
}

type fakeDays struct {
	events []timegrid.DisplayEvent
	err    error
}

func (f fakeDays) DayEvents(ctx context.Context, userID string, date time.Time) ([]timegrid.DisplayEvent, error) {
	return f.events, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy() retry.Policy {
	return retry.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestAsk_GroundsPromptWithDayEvents(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	gen := &fakeGenerator{}
	svc := NewService(gen, fakeDays{events: []timegrid.DisplayEvent{{
		ID:       "1",
		Title:    "Physics lecture",
		Start:    date.Add(9 * time.Hour),
		End:      date.Add(10 * time.Hour),
		Category: "lesson",
	}}}, fastPolicy(), quietLogger())

	ans, err := svc.Ask(context.Background(), AskInput{UserID: "u1", Date: date, Question: " what's on? "})
	require.NoError(t, err)

	assert.Equal(t, "You have a lecture at 09:00.", ans.Text)
	assert.Equal(t, 1, ans.Events)
	assert.Equal(t, "what's on?", gen.prompt)
	assert.Contains(t, gen.system, "- 09:00-10:00 Physics lecture [lesson]")
	assert.Contains(t, gen.system, "Monday 2 March 2026")
}

func TestAsk_RetriesGenerator(t *testing.T) {
	gen := &fakeGenerator{fail: 2, failErr: errors.New("unavailable")}
	svc := NewService(gen, fakeDays{}, fastPolicy(), quietLogger())

	_, err := svc.Ask(context.Background(), AskInput{UserID: "u1", Date: time.Now(), Question: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 3, gen.calls)
	assert.Contains(t, gen.system, "No events.")
}

func TestAsk_GivesUpAfterAttempts(t *testing.T) {
	boom := errors.New("unavailable")
	gen := &fakeGenerator{fail: 10, failErr: boom}
	svc := NewService(gen, fakeDays{}, fastPolicy(), quietLogger())

	_, err := svc.Ask(context.Background(), AskInput{UserID: "u1", Date: time.Now(), Question: "hi"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, gen.calls)
}

func TestAsk_Validation(t *testing.T) {
	svc := NewService(&fakeGenerator{}, fakeDays{}, fastPolicy(), quietLogger())

	tests := []struct {
		name string
		in   AskInput
		want string
	}{
		{name: "empty", in: AskInput{UserID: "u1", Question: "   "}, want: "question is required"},
		{name: "too long", in: AskInput{UserID: "u1", Question: strings.Repeat("a", maxQuestionLen+1)}, want: "question too long"},
		{name: "no user", in: AskInput{Question: "hi"}, want: "user_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ask(context.Background(), tt.in)
			var qErr *InvalidQuestionError
			require.ErrorAs(t, err, &qErr)
			assert.Equal(t, tt.want, qErr.Error())
		})
	}
}

func TestAsk_DisabledAndDayErrors(t *testing.T) {
	_, err := NewService(nil, fakeDays{}, fastPolicy(), quietLogger()).Ask(context.Background(), AskInput{UserID: "u1", Question: "hi"})
	assert.ErrorIs(t, err, ErrDisabled)

	boom := errors.New("db down")
	gen := &fakeGenerator{}
	_, err = NewService(gen, fakeDays{err: boom}, fastPolicy(), quietLogger()).Ask(context.Background(), AskInput{UserID: "u1", Question: "hi"})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, gen.calls)
}
