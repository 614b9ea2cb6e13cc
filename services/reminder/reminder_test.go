package remindersvc

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kazi/core/assignment"
	logsvc "github.com/trezcool/kazi/services/logger"
	notifsvc "github.com/trezcool/kazi/services/notification"
)

// memRepo is an in-memory assignment.Repository counting persisted writes.
type memRepo struct {
	recs  []assignment.Assignment
	saves int
}

var _ assignment.Repository = (*memRepo)(nil)

func (r *memRepo) LoadAll() ([]assignment.Assignment, error) {
	out := make([]assignment.Assignment, len(r.recs))
	copy(out, r.recs)
	return out, nil
}

func (r *memRepo) Update(fn func(recs []assignment.Assignment) ([]assignment.Assignment, bool, error)) error {
	recs, _ := r.LoadAll()
	out, changed, err := fn(recs)
	if err != nil {
		return err
	}
	if changed {
		r.recs = out
		r.saves++
	}
	return nil
}

func newTestJob(repo *memRepo, notifSvc *notifsvc.ServiceMock, now time.Time) *Job {
	j := NewJob(repo, notifSvc, logsvc.NewStdLogger(log.New(io.Discard, "", 0)))
	j.now = func() time.Time { return now }
	return j
}

func Test_Job_RunOnce(t *testing.T) {
	now := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	repo := &memRepo{recs: []assignment.Assignment{
		{ID: "a1", Title: "Essay 1", Course: "ENG 101", DueDate: "2026-09-03"}, // tomorrow
		{ID: "a2", Title: "Lab 2", Course: "CHEM 120", DueDate: "2026-09-20"},  // far out
	}}
	notifSvc := notifsvc.NewServiceMock()
	job := newTestJob(repo, notifSvc, now)

	fired, err := job.RunOnce()

	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, assignment.MilestoneDueIn1, fired[0].Tag)

	require.Len(t, notifSvc.Sent, 1)
	assert.Equal(t, "Due TOMORROW — ENG 101", notifSvc.Sent[0].Title)
	assert.Equal(t, "Essay 1 is due tomorrow!", notifSvc.Sent[0].Body)

	assert.Equal(t, 1, repo.saves, "the fired tag must be persisted")
	assert.Equal(t, []string{assignment.MilestoneDueIn1}, repo.recs[0].NotificationsSent)
	assert.Empty(t, repo.recs[1].NotificationsSent)
}

func Test_Job_RunOnce_idempotentWithinADay(t *testing.T) {
	now := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	repo := &memRepo{recs: []assignment.Assignment{
		{ID: "a1", Title: "Essay 1", Course: "ENG 101", DueDate: "2026-09-02"},
	}}
	notifSvc := notifsvc.NewServiceMock()
	job := newTestJob(repo, notifSvc, now)

	fired, err := job.RunOnce()
	require.NoError(t, err)
	require.Len(t, fired, 1)

	// the hourly tick re-runs the same day: no duplicate delivery, no write
	fired, err = job.RunOnce()
	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Len(t, notifSvc.Sent, 1)
	assert.Equal(t, 1, repo.saves)
}

func Test_Job_RunOnce_nothingDue(t *testing.T) {
	now := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	repo := &memRepo{recs: []assignment.Assignment{
		{ID: "a1", Title: "Essay 1", Course: "ENG 101", DueDate: "2026-09-10"},
	}}
	notifSvc := notifsvc.NewServiceMock()
	job := newTestJob(repo, notifSvc, now)

	fired, err := job.RunOnce()

	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Empty(t, notifSvc.Sent)
	assert.Equal(t, 0, repo.saves, "no milestone fired, nothing to write")
}
