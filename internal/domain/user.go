package domain

// UserContact holds the fields needed to address an order notification.
type UserContact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the identity attached to a request by the upstream auth layer.
// Services receive it explicitly; they never authenticate on their own.
type Session struct {
	UserID  string
	IsAdmin bool
}
