package service

import "context"

// ActivationMessage is everything needed to render one activation email.
type ActivationMessage struct {
	To                string
	DisplayName       string
	Code              string
	ActivationBaseURL string
	Subject           string
}

// Notifier accepts activation emails for delivery. Implementations must not
// block on the mail transport; an error means the message was not accepted.
type Notifier interface {
	SendActivation(ctx context.Context, msg ActivationMessage) error
}
