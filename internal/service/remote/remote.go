// Package remote holds the helpers the stateless services share for talking
// to the platform: opening a client from a session string, bounding each
// call with a deadline, and mapping failures onto the gateway's error kinds.
package remote

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/tg-gateway/internal/apperr"
	"github.com/zhouzirui/tg-gateway/internal/telegram"
)

// DefaultCallTimeout bounds a remote call when no timeout is configured.
const DefaultCallTimeout = 30 * time.Second

// Open builds a client for sessionString and connects it.
func Open(ctx context.Context, factory telegram.Factory, sessionString string, timeout time.Duration) (telegram.Client, error) {
	sessionString = strings.TrimSpace(sessionString)
	if sessionString == "" {
		return nil, apperr.New(apperr.KindInvalidRequest, "open session", errors.New("session_string is required"))
	}

	client, err := factory.FromSession(sessionString)
	if err != nil {
		return nil, apperr.New(apperr.KindAuthExpired, "open session", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, orDefault(timeout))
	defer cancel()

	if err := client.Connect(callCtx); err != nil {
		_ = client.Stop()
		return nil, Err(apperr.KindConnectionFailed, "connect", err)
	}
	return client, nil
}

// Close stops client, logging a failed teardown.
func Close(client telegram.Client, op string) {
	if err := client.Stop(); err != nil {
		log.Warn().Err(err).Str("op", op).Msg("failed to stop client")
	}
}

// Call runs fn under its own deadline derived from ctx.
func Call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, orDefault(timeout))
	defer cancel()
	return fn(callCtx)
}

// Err wraps a failed remote call in kind. Revoked sessions become
// AUTH_EXPIRED, unresolvable chats INVALID_REQUEST, and deadlines
// CONNECTION_FAILED unless the call was a delivery.
func Err(kind apperr.Kind, op string, err error) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, telegram.ErrUnauthorized), errors.Is(err, telegram.ErrMalformedSession):
		kind = apperr.KindAuthExpired
	case errors.Is(err, telegram.ErrInvalidCredentials):
		kind = apperr.KindInvalidCredentials
	case errors.Is(err, telegram.ErrChatNotFound):
		kind = apperr.KindInvalidRequest
	case errors.Is(err, context.DeadlineExceeded) && kind != apperr.KindDeliveryFailed:
		kind = apperr.KindConnectionFailed
	}
	return apperr.New(kind, op, err)
}

func orDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultCallTimeout
	}
	return timeout
}
