// Package assistant answers free-form questions about a learner's day. It is a
// pass-through to a hosted model; the only thing it adds is the day's
// schedule as context.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"aizily/backend/internal/retry"
	"aizily/backend/internal/timegrid"
)

const (
	DefaultModel = "gemini-2.5-flash"

	maxQuestionLen = 2000
)

// ErrDisabled is returned when no model is configured.
var ErrDisabled = errors.New("assistant is not configured")

// Generator produces a model reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// DaySource lists the events shown on a day's grid.
type DaySource interface {
	DayEvents(ctx context.Context, userID string, date time.Time) ([]timegrid.DisplayEvent, error)
}

type InvalidQuestionError struct {
	msg string
}

func (e *InvalidQuestionError) Error() string { return e.msg }

type Service struct {
	gen    Generator
	days   DaySource
	policy retry.Policy
	log    *slog.Logger
}

// NewService wires the assistant. gen may be nil, in which case Ask returns
// ErrDisabled.
func NewService(gen Generator, days DaySource, policy retry.Policy, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{gen: gen, days: days, policy: policy, log: log.With(slog.String("component", "assistant"))}
}

type AskInput struct {
	UserID   string
	Date     time.Time
	Question string
}

type Answer struct {
	Text string
	// Events is how many calendar entries were given to the model.
	Events int
}

func (s *Service) Ask(ctx context.Context, in AskInput) (Answer, error) {
	if s.gen == nil {
		return Answer{}, ErrDisabled
	}
	q := strings.TrimSpace(in.Question)
	if q == "" {
		return Answer{}, &InvalidQuestionError{msg: "question is required"}
	}
	if len(q) > maxQuestionLen {
		return Answer{}, &InvalidQuestionError{msg: "question too long"}
	}
	if in.UserID == "" {
		return Answer{}, &InvalidQuestionError{msg: "user_id is required"}
	}

	events, err := s.days.DayEvents(ctx, in.UserID, in.Date)
	if err != nil {
		return Answer{}, fmt.Errorf("load day events: %w", err)
	}

	system := systemPrompt(in.Date, events)
	var text string
	err = retry.Do(ctx, s.policy, func(ctx context.Context) error {
		out, err := s.gen.Generate(ctx, system, q)
		if err != nil {
			s.log.Warn("generate failed", slog.Any("err", err))
			return err
		}
		text = strings.TrimSpace(out)
		return nil
	})
	if err != nil {
		return Answer{}, fmt.Errorf("generate: %w", err)
	}
	return Answer{Text: text, Events: len(events)}, nil
}

func systemPrompt(date time.Time, events []timegrid.DisplayEvent) string {
	var b strings.Builder
	b.WriteString("You are a study planning assistant. Answer using the learner's calendar below. ")
	b.WriteString("Do not invent events.\n")
	fmt.Fprintf(&b, "Date: %s\n", date.Format("Monday 2 January 2006"))
	if len(events) == 0 {
		b.WriteString("No events.\n")
		return b.String()
	}
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s-%s %s [%s]\n",
			ev.Start.Format(timegrid.LabelLayout), ev.End.Format(timegrid.LabelLayout), ev.Title, ev.Category)
	}
	return b.String()
}

// GenAIGenerator calls the Gemini API.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("genai api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.2),
		},
	)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}
