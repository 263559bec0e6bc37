package calendarv1

import "time"

type Appointment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	Category  string    `json:"category"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateAppointmentRequest struct {
	UserID    string     `json:"user_id,omitempty"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes,omitempty"`
	Category  string     `json:"category,omitempty"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

type CreateAppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type ListAppointmentsRequest struct {
	UserID      string     `json:"user_id,omitempty"`
	WindowStart *time.Time `json:"window_start"`
	WindowEnd   *time.Time `json:"window_end"`
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
}

type DeleteAppointmentRequest struct {
	UserID        string `json:"user_id,omitempty"`
	AppointmentID string `json:"appointment_id"`
}

type DeleteAppointmentResponse struct{}

type RecurringSeries struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Title     string      `json:"title"`
	Notes     string      `json:"notes,omitempty"`
	Category  string      `json:"category"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	RRule     string      `json:"rrule"`
	TimeZone  string      `json:"time_zone"`
	ExDates   []time.Time `json:"exdates,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type CreateRecurringSeriesRequest struct {
	UserID    string     `json:"user_id,omitempty"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes,omitempty"`
	Category  string     `json:"category,omitempty"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	RRule     string     `json:"rrule"`
	TimeZone  string     `json:"time_zone"`
}

type CreateRecurringSeriesResponse struct {
	Series *RecurringSeries `json:"series"`
}

type Occurrence struct {
	SeriesID     string    `json:"series_id"`
	OccurrenceID string    `json:"occurrence_id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Notes        string    `json:"notes,omitempty"`
	Category     string    `json:"category"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

type ListOccurrencesRequest struct {
	UserID      string     `json:"user_id,omitempty"`
	WindowStart *time.Time `json:"window_start"`
	WindowEnd   *time.Time `json:"window_end"`
}

type ListOccurrencesResponse struct {
	Occurrences []*Occurrence `json:"occurrences"`
}

type SkipOccurrenceRequest struct {
	UserID       string `json:"user_id,omitempty"`
	SeriesID     string `json:"series_id"`
	OccurrenceID string `json:"occurrence_id"`
}

type SkipOccurrenceResponse struct{}

type DeleteRecurringSeriesRequest struct {
	UserID   string `json:"user_id,omitempty"`
	SeriesID string `json:"series_id"`
}

type DeleteRecurringSeriesResponse struct{}

// DayRequest names a calendar day ("2006-01-02") in an IANA zone.
type DayRequest struct {
	UserID   string `json:"user_id,omitempty"`
	Date     string `json:"date"`
	TimeZone string `json:"time_zone,omitempty"`
}

type DisplayEvent struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type DayEventsResponse struct {
	Events []*DisplayEvent `json:"events"`
}

type Style struct {
	Fill   string `json:"fill"`
	Border string `json:"border"`
	Text   string `json:"text"`
}

type Placement struct {
	Event         *DisplayEvent `json:"event"`
	Top           float64       `json:"top"`
	Height        float64       `json:"height"`
	Z             int           `json:"z"`
	ClippedTop    bool          `json:"clipped_top,omitempty"`
	ClippedBottom bool          `json:"clipped_bottom,omitempty"`
	Style         *Style        `json:"style"`
}

type LayoutDayResponse struct {
	GridHeight float64      `json:"grid_height"`
	Placements []*Placement `json:"placements"`
}

// ResolveSelectionRequest carries a gesture's start and end offsets in
// pixels from the grid top.
type ResolveSelectionRequest struct {
	Date     string  `json:"date"`
	TimeZone string  `json:"time_zone,omitempty"`
	StartY   float64 `json:"start_y"`
	EndY     float64 `json:"end_y"`
}

type ResolveSelectionResponse struct {
	StartLabel string    `json:"start_label"`
	EndLabel   string    `json:"end_label"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Top        float64   `json:"top"`
	Height     float64   `json:"height"`
}

type BookSelectionRequest struct {
	UserID     string `json:"user_id,omitempty"`
	Date       string `json:"date"`
	TimeZone   string `json:"time_zone,omitempty"`
	StartLabel string `json:"start_label"`
	EndLabel   string `json:"end_label"`
	Title      string `json:"title"`
	Notes      string `json:"notes,omitempty"`
	Category   string `json:"category,omitempty"`
}

type BookSelectionResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type AskRequest struct {
	UserID   string `json:"user_id,omitempty"`
	Date     string `json:"date"`
	TimeZone string `json:"time_zone,omitempty"`
	Question string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
	Events int    `json:"events"`
}
