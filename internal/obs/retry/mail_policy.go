package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// MailPolicy retries SMTP delivery. Failures after the server accepted the
// connection should be wrapped with Permanent by the sender.
func MailPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "smtp_send",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 2 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Debug("mail retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
	}
}
