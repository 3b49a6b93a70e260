package notify

import "context"

// Email is a rendered notification ready to be handed to a transport.
type Email struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Sender defines the interface for delivering an email through a specific
// transport. Delivery is best-effort: callers log failures and move on, a
// notification never decides the fate of the order it describes.
type Sender interface {
	Name() string
	Send(ctx context.Context, email *Email) error
}
