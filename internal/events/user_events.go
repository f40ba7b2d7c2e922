package events

import (
	"context"
	"log/slog"
	"time"
)

type UserRegistered struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	At     time.Time `json:"at"`
}

type AccountActivated struct {
	UserID  string    `json:"userId"`
	Email   string    `json:"email"`
	TokenID string    `json:"tokenId"`
	At      time.Time `json:"at"`
}

// ActivationReissued is emitted when an expired code was presented and a
// replacement was generated for the same user.
type ActivationReissued struct {
	UserID         string    `json:"userId"`
	Email          string    `json:"email"`
	ExpiredTokenID string    `json:"expiredTokenId"`
	NewTokenID     string    `json:"newTokenId"`
	At             time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event any)
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, event any) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "domain event", "type", eventType(event), "event", event)
}

func eventType(event any) string {
	switch event.(type) {
	case UserRegistered, *UserRegistered:
		return "user.registered"
	case AccountActivated, *AccountActivated:
		return "user.activated"
	case ActivationReissued, *ActivationReissued:
		return "user.activation_reissued"
	default:
		return "unknown"
	}
}
