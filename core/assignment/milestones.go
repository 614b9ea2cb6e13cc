package assignment

import (
	"fmt"
	"time"
)

// Reminder is one notification produced by a milestone firing.
type Reminder struct {
	Assignment Assignment
	Tag        string
	Title      string
	Body       string
}

var milestones = []struct {
	tag  string
	days int
}{
	{MilestoneDueIn3, 3},
	{MilestoneDueIn1, 1},
	{MilestoneDueToday, 0},
}

// CheckMilestones evaluates every record against the reminder milestones for
// the given day, appending newly fired tags to each record's
// notifications_sent in place. It returns the reminders to deliver and
// whether any record mutated (so callers can skip the write when nothing
// changed). It is a pure function over its inputs and safe to re-run any
// number of times per day: firing is gated on the persisted tag set, so a tag
// never fires again once written back.
//
// Past-due records are never evaluated. Records with an unparsable due date
// are skipped individually.
func CheckMilestones(records []Assignment, today time.Time) ([]Reminder, bool) {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var fired []Reminder
	var mutated bool
	for i := range records {
		rec := &records[i]
		due, err := rec.Due()
		if err != nil {
			continue // skip malformed entries
		}
		daysUntil := int(due.Sub(day).Hours() / 24)
		if daysUntil < 0 {
			continue // don't notify for past-due assignments
		}

		for _, m := range milestones {
			if daysUntil != m.days || !rec.AddMilestone(m.tag) {
				continue
			}
			mutated = true
			title, body := reminderText(m.tag, *rec, due)
			fired = append(fired, Reminder{Assignment: *rec, Tag: m.tag, Title: title, Body: body})
		}
	}
	return fired, mutated
}

func reminderText(tag string, rec Assignment, due time.Time) (title, body string) {
	switch tag {
	case MilestoneDueIn3:
		return fmt.Sprintf("Due in 3 days — %s", rec.Course),
			fmt.Sprintf("%s is due %s", rec.Title, due.Format("Monday, January 02"))
	case MilestoneDueIn1:
		return fmt.Sprintf("Due TOMORROW — %s", rec.Course),
			fmt.Sprintf("%s is due tomorrow!", rec.Title)
	default: // MilestoneDueToday
		return fmt.Sprintf("Due TODAY — %s", rec.Course),
			fmt.Sprintf("%s is due today. Good luck!", rec.Title)
	}
}
