package remindersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/assignment"
)

// Job periodically checks every record against the reminder milestones and
// delivers the ones that fire. Because firing is gated on the persisted
// notifications_sent sets, running it any number of times per day (or after a
// crash) never repeats a reminder that was durably recorded.
type Job struct {
	repo     assignment.Repository
	notifSvc core.NotificationService
	logger   core.Logger
	now      func() time.Time // mockable
}

func NewJob(repo assignment.Repository, notifSvc core.NotificationService, logger core.Logger) *Job {
	return &Job{
		repo:     repo,
		notifSvc: notifSvc,
		logger:   logger,
		now:      time.Now,
	}
}

// RunOnce performs one milestone pass: check, deliver, persist. The milestone
// sets are only written back when something fired, and delivery happens
// before the write so a crash in between re-fires at most once.
func (j *Job) RunOnce() ([]assignment.Reminder, error) {
	var fired []assignment.Reminder
	err := j.repo.Update(func(recs []assignment.Assignment) ([]assignment.Assignment, bool, error) {
		var mutated bool
		fired, mutated = assignment.CheckMilestones(recs, j.now())

		if len(fired) > 0 {
			notifs := make([]*core.Notification, 0, len(fired))
			for _, rem := range fired {
				notifs = append(notifs, &core.Notification{Title: rem.Title, Body: rem.Body})
			}
			j.notifSvc.Send(notifs...)
		}
		return recs, mutated, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "persisting fired milestones")
	}
	return fired, nil
}

// Start runs one pass right away and then one per interval until ctx is
// cancelled.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	run := func() {
		fired, err := j.RunOnce()
		if err != nil {
			j.logger.Warn(fmt.Sprintf("reminder check failed: %v", err), err)
			return
		}
		if len(fired) > 0 {
			j.logger.Info(fmt.Sprintf("delivered %d reminder(s)", len(fired)))
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
