package notifsvc

import (
	"log"
)

// consoleChannel prints notifications to the application log; it doubles as
// the delivery channel in DEV mode.
type consoleChannel struct {
	std *log.Logger
}

var _ Channel = (*consoleChannel)(nil)

func NewConsoleChannel(std *log.Logger) Channel {
	return &consoleChannel{std: std}
}

func (ch consoleChannel) Name() string { return "console" }

func (ch consoleChannel) Deliver(title, body string) error {
	ch.std.Printf("NOTIFICATION: %s: %s", title, body)
	return nil
}
