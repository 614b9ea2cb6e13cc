package notifsvc

import (
	"fmt"
	"sync"

	"github.com/trezcool/kazi/core"
)

type (
	// Channel is one physical delivery mechanism for a notification.
	Channel interface {
		Name() string
		Deliver(title, body string) error
	}

	// service fans every notification out to all channels. A failing channel
	// is logged and isolated; it never blocks another channel and is never
	// retried (a missed reminder is only re-attempted by the next natural
	// milestone, if any).
	service struct {
		channels []Channel
		logger   core.Logger
	}
)

var _ core.NotificationService = (*service)(nil)

func NewService(logger core.Logger, channels ...Channel) core.NotificationService {
	return &service{channels: channels, logger: logger}
}

func (svc *service) Send(notifs ...*core.Notification) {
	for _, n := range notifs {
		for _, ch := range svc.channels {
			n, ch := n, ch
			go func() {
				if err := ch.Deliver(n.Title, n.Body); err != nil {
					svc.logger.Warn(fmt.Sprintf("%s notification failed: %v", ch.Name(), err), err)
				}
			}()
		}
	}
}

// ServiceMock delivers synchronously and records every notification sent.
type ServiceMock struct {
	mu   sync.Mutex
	Sent []core.Notification
}

var _ core.NotificationService = (*ServiceMock)(nil)

func NewServiceMock() *ServiceMock { return &ServiceMock{} }

func (svc *ServiceMock) Send(notifs ...*core.Notification) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, n := range notifs {
		svc.Sent = append(svc.Sent, *n)
	}
}
