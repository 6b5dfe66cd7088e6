package analytics

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// AnonymousUser is recorded when the client sends no user id.
const AnonymousUser = "anonymous"

// DateLayout keys events by UTC calendar day.
const DateLayout = "2006-01-02"

// TopProjectsLimit caps Summary.TopProjects.
const TopProjectsLimit = 10

const maxUserIDLen = 256

var labelRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)

// Event is a single tracked interaction.
type Event struct {
	ID        string
	ProjectID string
	EventType string
	UserID    string
	Timestamp time.Time
}

// New validates an event. Project and event type are short labels.
func New(id, projectID, eventType, userID string, now time.Time) (Event, error) {
	if err := ValidateLabel("project_id", projectID); err != nil {
		return Event{}, err
	}
	if err := ValidateLabel("event_type", eventType); err != nil {
		return Event{}, err
	}
	if userID == "" {
		userID = AnonymousUser
	}
	if len(userID) > maxUserIDLen {
		return Event{}, fmt.Errorf("user_id longer than %d bytes", maxUserIDLen)
	}
	return Event{ID: id, ProjectID: projectID, EventType: eventType, UserID: userID, Timestamp: now}, nil
}

// ValidateLabel checks a project id or event type.
func ValidateLabel(name, v string) error {
	if !labelRegex.MatchString(v) {
		return fmt.Errorf("%s must match %s", name, labelRegex)
	}
	return nil
}

// Date returns the UTC day of the event.
func (e Event) Date() string {
	return e.Timestamp.UTC().Format(DateLayout)
}

// Filter selects events. Empty fields match everything.
type Filter struct {
	ProjectID string
	EventType string
	UserID    string
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Event) bool {
	return (f.ProjectID == "" || f.ProjectID == e.ProjectID) &&
		(f.EventType == "" || f.EventType == e.EventType) &&
		(f.UserID == "" || f.UserID == e.UserID)
}

// Apply returns the events that pass the filter, keeping their order.
func (f Filter) Apply(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// ProjectCount is one entry of the top projects ranking.
type ProjectCount struct {
	ProjectID string
	Events    int
}

// Summary aggregates every stored event.
type Summary struct {
	Total       int
	ByEventType map[string]int
	ByProject   map[string]int
	TopProjects []ProjectCount // most events first, ties by project id
	ByDate      map[string]int // keyed by DateLayout
}

// Summarize aggregates events.
func Summarize(events []Event) Summary {
	s := Summary{
		Total:       len(events),
		ByEventType: make(map[string]int),
		ByProject:   make(map[string]int),
		ByDate:      make(map[string]int),
	}
	for _, e := range events {
		s.ByEventType[e.EventType]++
		s.ByProject[e.ProjectID]++
		s.ByDate[e.Date()]++
	}

	s.TopProjects = make([]ProjectCount, 0, len(s.ByProject))
	for id, n := range s.ByProject {
		s.TopProjects = append(s.TopProjects, ProjectCount{ProjectID: id, Events: n})
	}
	sort.Slice(s.TopProjects, func(i, j int) bool {
		a, b := s.TopProjects[i], s.TopProjects[j]
		if a.Events != b.Events {
			return a.Events > b.Events
		}
		return a.ProjectID < b.ProjectID
	})
	if len(s.TopProjects) > TopProjectsLimit {
		s.TopProjects = s.TopProjects[:TopProjectsLimit]
	}
	return s
}

// Activity is the event history of one project or one user.
type Activity struct {
	Total     int
	Breakdown map[string]int // by event type
	Projects  int            // distinct projects touched
	Events    []Event
}

// ActivityOf aggregates the given events, which the caller has already filtered.
func ActivityOf(events []Event) Activity {
	a := Activity{Total: len(events), Breakdown: make(map[string]int), Events: events}
	seen := make(map[string]struct{})
	for _, e := range events {
		a.Breakdown[e.EventType]++
		seen[e.ProjectID] = struct{}{}
	}
	a.Projects = len(seen)
	return a
}
