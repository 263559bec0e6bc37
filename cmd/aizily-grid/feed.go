package main

import (
	"context"
	"sync"
	"time"

	"aizily/backend/internal/timegrid"
)

// dayFeed follows the day a surface shows so a background refresher fetches
// that day and tags each delivery with it.
type dayFeed struct {
	events interface {
		DayEvents(ctx context.Context, date time.Time) ([]timegrid.DisplayEvent, error)
	}
	deliver func(date time.Time, events []timegrid.DisplayEvent)

	mu      sync.Mutex
	current time.Time
	fetched time.Time
}

// SetDate is passed to a surface as its OnDateChange hook.
func (f *dayFeed) SetDate(date time.Time) {
	f.mu.Lock()
	f.current = date
	f.mu.Unlock()
}

func (f *dayFeed) Fetch(ctx context.Context) ([]timegrid.DisplayEvent, error) {
	f.mu.Lock()
	date := f.current
	f.mu.Unlock()

	events, err := f.events.DayEvents(ctx, date)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.fetched = date
	f.mu.Unlock()
	return events, nil
}

func (f *dayFeed) Deliver(events []timegrid.DisplayEvent) {
	f.mu.Lock()
	date := f.fetched
	f.mu.Unlock()
	f.deliver(date, events)
}
