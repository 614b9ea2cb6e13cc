package syncsvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/assignment"
	"github.com/trezcool/kazi/services/canvas"
)

var ErrSyncRunning = errors.New("a sync is already running")

type (
	// Fetcher is the remote source of assignment state.
	Fetcher interface {
		Configured() bool
		ActiveCourses(ctx context.Context) ([]canvas.Course, error)
		Assignments(ctx context.Context, courseID int, bucket string) ([]canvas.Assignment, error)
	}

	// Status is a read-only snapshot of the runner's state for the serving layer.
	Status struct {
		Running  bool                    `json:"running"`
		LastSync string                  `json:"last_sync"`
		Result   *assignment.SyncSummary `json:"result"`
		Error    string                  `json:"error"`
	}

	// Runner executes Canvas sync passes, one at a time, and owns the
	// sync-status state.
	Runner struct {
		fetcher Fetcher
		repo    assignment.Repository
		logger  core.Logger
		now     func() time.Time // mockable

		mu      sync.Mutex
		running bool
		status  Status
	}
)

var _ Fetcher = (*canvas.Client)(nil)

func NewRunner(fetcher Fetcher, repo assignment.Repository, logger core.Logger) *Runner {
	return &Runner{
		fetcher: fetcher,
		repo:    repo,
		logger:  logger,
		now:     time.Now,
	}
}

// Status returns a snapshot of the last/current sync.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.status
	if r.status.Result != nil {
		res := *r.status.Result
		snap.Result = &res
	}
	return snap
}

// Start kicks off a sync in the background; it reports false when a sync is
// already running (the new request is then a no-op).
func (r *Runner) Start() bool {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return false
	}
	r.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := r.Run(ctx); err != nil && errors.Cause(err) != ErrSyncRunning {
			r.logger.Warn(fmt.Sprintf("canvas sync failed: %v", err), err)
		}
	}()
	return true
}

// Run performs one full sync pass: fetch the Canvas snapshot, reconcile it
// into the store, record the outcome. A failure of the course list or of
// authentication is a hard failure and leaves the store untouched; individual
// course fetches degrade to empty results.
func (r *Runner) Run(ctx context.Context) (assignment.SyncSummary, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return assignment.SyncSummary{}, ErrSyncRunning
	}
	r.running = true
	r.status.Running = true
	r.mu.Unlock()

	sum, err := r.run(ctx)

	r.mu.Lock()
	r.running = false
	r.status.Running = false
	if err != nil {
		r.status.Error = err.Error()
	} else {
		r.status.Error = ""
		r.status.Result = &sum
		r.status.LastSync = r.now().Format("3:04 PM")
	}
	r.mu.Unlock()
	return sum, err
}

func (r *Runner) run(ctx context.Context) (assignment.SyncSummary, error) {
	var sum assignment.SyncSummary

	courses, err := r.fetcher.ActiveCourses(ctx)
	if err != nil {
		return sum, errors.Wrap(err, "fetching courses")
	}

	today := r.now().Format(assignment.DateLayout)
	var upcoming []assignment.RemoteAssignment
	doneIDs := make(map[int]bool)

	for _, course := range courses {
		// Upcoming (not yet due, not submitted). One inaccessible course must
		// not block sync of the rest.
		rows, err := r.fetcher.Assignments(ctx, course.ID, canvas.BucketUpcoming)
		if err != nil {
			r.logger.Warn(fmt.Sprintf("skipping upcoming assignments of %q: %v", course.Name, err), err)
			rows = nil
		}
		for _, row := range rows {
			due, ok := localDueDate(row.DueAt)
			if !ok {
				continue // skip undated assignments
			}
			if due < today {
				continue // skip anything already past
			}
			title := row.Name
			if title == "" {
				title = "Unnamed Assignment"
			}
			upcoming = append(upcoming, assignment.RemoteAssignment{
				CanvasID: row.ID,
				Title:    title,
				Course:   course.Name,
				DueDate:  due,
			})
		}

		// Submitted and graded both count as done.
		for _, bucket := range []string{canvas.BucketSubmitted, canvas.BucketGraded} {
			rows, err := r.fetcher.Assignments(ctx, course.ID, bucket)
			if err != nil {
				r.logger.Warn(fmt.Sprintf("skipping %s assignments of %q: %v", bucket, course.Name, err), err)
				continue
			}
			for _, row := range rows {
				doneIDs[row.ID] = true
			}
		}
	}

	err = r.repo.Update(func(recs []assignment.Assignment) ([]assignment.Assignment, bool, error) {
		var out []assignment.Assignment
		out, sum = assignment.Reconcile(upcoming, doneIDs, recs)
		return out, true, nil
	})
	if err != nil {
		return assignment.SyncSummary{}, errors.Wrap(err, "saving reconciled records")
	}
	return sum, nil
}

// StartAutoSync runs one sync right away and then one per interval until ctx
// is cancelled.
func (r *Runner) StartAutoSync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	run := func() {
		if _, err := r.Run(ctx); err != nil && errors.Cause(err) != ErrSyncRunning {
			r.logger.Warn(fmt.Sprintf("auto-sync failed: %v", err), err)
		}
	}
	go func() {
		run()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}

// localDueDate converts a Canvas UTC timestamp to the local calendar day at
// sync time. It reports false when no due date is set or it cannot be parsed.
func localDueDate(dueAt string) (string, bool) {
	if dueAt == "" {
		return "", false
	}
	t, err := time.Parse(time.RFC3339, dueAt)
	if err != nil {
		return "", false
	}
	return t.Local().Format(assignment.DateLayout), true
}
