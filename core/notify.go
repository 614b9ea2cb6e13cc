package core

type (
	// Notification is a single logical reminder to be fanned out to every
	// configured delivery channel.
	Notification struct {
		Title string
		Body  string
	}

	// NotificationService is any service that can deliver notifications.
	NotificationService interface {
		// Send delivers notifications concurrently, fire-and-forget.
		// A failing channel never surfaces to the caller; there are no retries.
		Send(notifs ...*Notification)
	}
)
