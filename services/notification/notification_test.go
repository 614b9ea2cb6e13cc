package notifsvc

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kazi/core"
	logsvc "github.com/trezcool/kazi/services/logger"
)

// recordingChannel records deliveries; it fails every delivery when err is set.
type recordingChannel struct {
	name string
	err  error

	mu        sync.Mutex
	delivered []core.Notification
	wg        *sync.WaitGroup
}

var _ Channel = (*recordingChannel)(nil)

func (ch *recordingChannel) Name() string { return ch.name }

func (ch *recordingChannel) Deliver(title, body string) error {
	defer ch.wg.Done()
	if ch.err != nil {
		return ch.err
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.delivered = append(ch.delivered, core.Notification{Title: title, Body: body})
	return nil
}

func waitDeliveries(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deliveries did not complete in time")
	}
}

func Test_service_Send_fansOutToAllChannels(t *testing.T) {
	var wg sync.WaitGroup
	console := &recordingChannel{name: "console", wg: &wg}
	bark := &recordingChannel{name: "bark", wg: &wg}
	svc := NewService(logsvc.NewStdLogger(log.New(io.Discard, "", 0)), console, bark)

	wg.Add(4) // 2 notifications x 2 channels
	svc.Send(
		&core.Notification{Title: "Due TODAY — ENG 101", Body: "Essay 1 is due today. Good luck!"},
		&core.Notification{Title: "Due TOMORROW — CHEM 120", Body: "Lab 2 is due tomorrow!"},
	)
	waitDeliveries(t, &wg)

	for _, ch := range []*recordingChannel{console, bark} {
		require.Len(t, ch.delivered, 2, "%s must receive every notification", ch.name)
		assert.ElementsMatch(t,
			[]string{"Due TODAY — ENG 101", "Due TOMORROW — CHEM 120"},
			[]string{ch.delivered[0].Title, ch.delivered[1].Title})
	}
}

func Test_service_Send_aFailingChannelIsIsolated(t *testing.T) {
	var wg sync.WaitGroup
	broken := &recordingChannel{name: "bark", err: errors.New("bark server unreachable"), wg: &wg}
	console := &recordingChannel{name: "console", wg: &wg}
	svc := NewService(logsvc.NewStdLogger(log.New(io.Discard, "", 0)), broken, console)

	wg.Add(2)
	svc.Send(&core.Notification{Title: "Due TODAY — ENG 101", Body: "Essay 1 is due today. Good luck!"})
	waitDeliveries(t, &wg)

	require.Len(t, console.delivered, 1, "other channels still deliver")
	assert.Empty(t, broken.delivered)
}

func Test_ServiceMock_records(t *testing.T) {
	mock := NewServiceMock()
	mock.Send(&core.Notification{Title: "t1", Body: "b1"})
	mock.Send(&core.Notification{Title: "t2", Body: "b2"})

	require.Len(t, mock.Sent, 2)
	assert.Equal(t, "t1", mock.Sent[0].Title)
	assert.Equal(t, "b2", mock.Sent[1].Body)
}
