package retry

import (
	"context"
	"errors"
	"time"

	"github.com/NordCoder/Linkbio/internal/errs"
	"go.uber.org/zap"
)

// HealthPolicy retries while the API is unreachable or answering 5xx.
func HealthPolicy(log *zap.Logger, attempts int) Policy {
	return Policy{
		Name:     "api_health",
		Attempts: attempts,
		Backoff:  ExpoJitter{Base: 250 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return errors.Is(err, errs.ErrNetwork) || errors.Is(err, errs.ErrServer)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Debug("health retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Warn("health retries exhausted", zap.Error(err))
			}
		},
	}
}
