// Package queue defines auth event payloads and publishes them to RabbitMQ.
package queue

// Queue names. One durable queue per event type; routing key equals the
// queue name on the default exchange.
const (
	QueueSignedUp  = "auth.signed_up"
	QueueLoggedIn  = "auth.logged_in"
	QueueLoggedOut = "auth.logged_out"
)

// SignedUpEvent is published after a user record is created, whether through
// the password signup flow or a first OAuth login.
type SignedUpEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Provider  string `json:"provider"` // "password" or the OAuth provider name
	SignedUp  string `json:"signed_up_at"`
	UserAgent string `json:"user_agent,omitempty"`
}

// LoggedInEvent is published after a successful login of any kind.
type LoggedInEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Provider  string `json:"provider"`
	LoggedIn  string `json:"logged_in_at"`
	UserAgent string `json:"user_agent,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}

// LoggedOutEvent is published when a refresh session is revoked by logout.
type LoggedOutEvent struct {
	UserID    string `json:"user_id"`
	TokenID   string `json:"token_id"`
	LoggedOut string `json:"logged_out_at"`
}
