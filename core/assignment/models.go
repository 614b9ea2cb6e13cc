package assignment

import (
	"encoding/json"
	"time"
)

// DateLayout is the calendar-day format used for due dates (no time-of-day).
const DateLayout = "2006-01-02"

// SourceCanvas marks records owned by the Canvas sync; manual records have no source.
const SourceCanvas = "canvas"

// Milestone tags recorded in notifications_sent once the matching reminder fired.
// The values match the original assignments.json file format so existing data
// keeps its already-fired markers.
const (
	MilestoneDueIn3   = "3_days"  // due in exactly 3 days
	MilestoneDueIn1   = "1_day"   // due tomorrow
	MilestoneDueToday = "morning" // due today
)

type (
	// Assignment is the unit of storage: one homework record, either pulled
	// from Canvas (CanvasID set) or added manually by the user (CanvasID nil).
	Assignment struct {
		ID                string   `json:"id"`
		CanvasID          *int     `json:"canvas_id,omitempty"`
		Title             string   `json:"title"`
		Course            string   `json:"course"`
		DueDate           string   `json:"due_date"` // YYYY-MM-DD, local calendar day
		Completed         bool     `json:"completed"`
		NotificationsSent []string `json:"notifications_sent"`
		Source            string   `json:"source,omitempty"`

		// extra holds unknown JSON fields so they round-trip untouched.
		extra map[string]json.RawMessage
	}

	// RemoteAssignment is one upcoming Canvas assignment, already converted to
	// a local calendar day by the sync runner.
	RemoteAssignment struct {
		CanvasID int
		Title    string
		Course   string
		DueDate  string
	}

	// SyncSummary reports what a reconciliation pass did.
	SyncSummary struct {
		Added         int `json:"added"`
		Updated       int `json:"updated"`
		Removed       int `json:"removed"`
		AutoCompleted int `json:"auto_completed"`
		TotalCanvas   int `json:"total_canvas"`
		Courses       int `json:"courses"`
	}
)

// IsRemote reports whether the record is owned by the Canvas sync.
func (a *Assignment) IsRemote() bool { return a.CanvasID != nil }

// HasMilestone reports whether the given milestone tag already fired.
func (a *Assignment) HasMilestone(tag string) bool {
	for _, t := range a.NotificationsSent {
		if t == tag {
			return true
		}
	}
	return false
}

// AddMilestone records a fired milestone tag; it reports false if the tag was
// already present (tags never repeat).
func (a *Assignment) AddMilestone(tag string) bool {
	if a.HasMilestone(tag) {
		return false
	}
	a.NotificationsSent = append(a.NotificationsSent, tag)
	return true
}

// Due parses the record's due date.
func (a *Assignment) Due() (time.Time, error) {
	return time.Parse(DateLayout, a.DueDate)
}

// assignmentAlias avoids recursion in the custom (un)marshalers.
type assignmentAlias Assignment

var knownFields = map[string]bool{
	"id":                 true,
	"canvas_id":          true,
	"title":              true,
	"course":             true,
	"due_date":           true,
	"completed":          true,
	"notifications_sent": true,
	"source":             true,
}

// UnmarshalJSON decodes a record, stashing unknown fields so they are
// preserved byte-for-byte when the record is written back.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*assignmentAlias)(a)); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if knownFields[k] {
			delete(raw, k)
		}
	}
	if len(raw) > 0 {
		a.extra = raw
	}
	return nil
}

// MarshalJSON encodes the record with its preserved unknown fields merged back in.
func (a Assignment) MarshalJSON() ([]byte, error) {
	if a.NotificationsSent == nil {
		a.NotificationsSent = []string{}
	}
	known, err := json.Marshal(assignmentAlias(a))
	if err != nil {
		return nil, err
	}
	if len(a.extra) == 0 {
		return known, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range a.extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}
