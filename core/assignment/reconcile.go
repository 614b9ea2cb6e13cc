package assignment

import "github.com/google/uuid"

// Reconcile merges the latest Canvas snapshot into the current record set and
// returns the full replacement set plus a change summary. It is a pure
// function over its inputs; persistence is the caller's responsibility.
//
// Canvas is authoritative for title, course and due date of remote records.
// Manual records (no canvas_id) pass through untouched. Completed flags and
// fired milestones are never reset. A remote record that is no longer
// upcoming survives only if it was submitted/graded on Canvas (forcing
// completed) or was already completed; otherwise it is removed.
//
// The caller must have filtered `upcoming` down to entries with a resolvable
// due date that is today or later, converted to the local calendar day.
func Reconcile(upcoming []RemoteAssignment, doneIDs map[int]bool, records []Assignment) ([]Assignment, SyncSummary) {
	var sum SyncSummary

	// Separate manual records from Canvas records; key the latter by canvas_id.
	manual := make([]Assignment, 0, len(records))
	canvasRecs := make([]Assignment, 0, len(records))
	byCanvasID := make(map[int]int, len(records)) // canvas_id -> index in canvasRecs
	for _, rec := range records {
		if rec.IsRemote() {
			if _, ok := byCanvasID[*rec.CanvasID]; !ok {
				byCanvasID[*rec.CanvasID] = len(canvasRecs)
			}
			canvasRecs = append(canvasRecs, rec)
		} else {
			manual = append(manual, rec)
		}
	}

	out := make([]Assignment, 0, len(records)+len(upcoming))
	out = append(out, manual...)

	// Process upcoming (active) assignments.
	courses := make(map[string]bool, len(upcoming))
	handled := make(map[int]bool, len(upcoming))
	for _, ra := range upcoming {
		courses[ra.Course] = true
		if handled[ra.CanvasID] {
			continue // canvas_id values are unique; ignore duplicate snapshot rows
		}
		handled[ra.CanvasID] = true

		if i, ok := byCanvasID[ra.CanvasID]; ok {
			rec := canvasRecs[i]
			changed := rec.Title != ra.Title || rec.Course != ra.Course || rec.DueDate != ra.DueDate
			rec.Title = ra.Title
			rec.Course = ra.Course
			rec.DueDate = ra.DueDate
			rec.Source = SourceCanvas
			// completed and notifications_sent are preserved (not touched)
			out = append(out, rec)
			if changed {
				sum.Updated++
			}
		} else {
			cid := ra.CanvasID
			out = append(out, Assignment{
				ID:                uuid.New().String(),
				CanvasID:          &cid,
				Title:             ra.Title,
				Course:            ra.Course,
				DueDate:           ra.DueDate,
				NotificationsSent: []string{},
				Source:            SourceCanvas,
			})
			sum.Added++
		}
	}

	// Process previously-tracked Canvas records no longer in upcoming.
	for _, rec := range canvasRecs {
		cid := *rec.CanvasID
		if handled[cid] {
			continue
		}
		handled[cid] = true

		switch {
		case doneIDs[cid]:
			// submitted or graded on Canvas: auto-mark as completed, keep
			if !rec.Completed {
				rec.Completed = true
				sum.AutoCompleted++
			}
			out = append(out, rec)
		case rec.Completed:
			// already marked complete (manually or previously auto): keep
			out = append(out, rec)
		default:
			// past-due, not submitted, not completed: remove
			sum.Removed++
		}
	}

	sum.TotalCanvas = len(out) - len(manual)
	sum.Courses = len(courses)
	return out, sum
}
