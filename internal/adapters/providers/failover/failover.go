package failover

import (
	"context"
	"errors"
	"time"

	"github.com/lunchwheel/venue-roulette/internal/infrastructure/observability"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
	"github.com/lunchwheel/venue-roulette/pkg/retry"
)

// ErrEmptyResult is returned by an attempt whose response parsed correctly but
// contained no usable records. It is classified as a soft failure like any
// network or parse error.
var ErrEmptyResult = errors.New("endpoint returned no results")

// Attempt issues one request against a single endpoint and returns the parsed
// result. Implementations must honor ctx cancellation.
type Attempt[T any] func(ctx context.Context, endpoint string) (T, error)

// Config controls how a sequence of endpoints is tried
type Config struct {
	// Provider names the upstream service in logs and failure reports
	Provider string
	// Timeout bounds each individual attempt
	Timeout time.Duration
	// AttemptDelay is a courtesy pause between attempts so mirror operators
	// of rate-limited public services are not hammered; it is not required
	// for correctness
	AttemptDelay time.Duration
}

// Do tries each endpoint in order and returns the first successful, non-empty
// result, along with the soft failures that preceded it. Non-2xx responses,
// network errors, parse errors and empty result sets are all soft failures
// that advance to the next endpoint; endpoints after the first success are
// never tried. When every endpoint soft-fails the per-endpoint reasons are
// aggregated into a single ProviderUnavailableError.
func Do[T any](ctx context.Context, cfg Config, endpoints []string, attempt Attempt[T]) (T, []apperrors.AttemptFailure, error) {
	var zero T

	if len(endpoints) == 0 {
		return zero, nil, apperrors.NewProviderUnavailableError(cfg.Provider, nil)
	}

	logger := observability.LoggerFromContext(ctx)
	failures := make([]apperrors.AttemptFailure, 0, len(endpoints))

	for i, endpoint := range endpoints {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if cfg.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}

		result, err := attempt(attemptCtx, endpoint)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			return result, failures, nil
		}

		logger.Debug().
			Str("provider", cfg.Provider).
			Str("endpoint", endpoint).
			Err(err).
			Msg("endpoint attempt failed, trying next")

		failures = append(failures, apperrors.AttemptFailure{
			Endpoint: endpoint,
			Reason:   err.Error(),
		})

		if ctx.Err() != nil {
			break
		}

		if i < len(endpoints)-1 {
			if err := retry.Wait(ctx, cfg.AttemptDelay); err != nil {
				break
			}
		}
	}

	return zero, failures, apperrors.NewProviderUnavailableError(cfg.Provider, failures)
}
