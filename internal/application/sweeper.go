package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/invoicescan/account-service/internal/ports"
)

// Sweeper garbage-collects expired OTP challenges on a fixed interval.
type Sweeper struct {
	logger   *slog.Logger
	otps     ports.OTPRepository
	interval time.Duration
}

func NewSweeper(logger *slog.Logger, otps ports.OTPRepository, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{logger: logger, otps: otps, interval: interval}
}

// Run executes the periodic purge loop until context cancellation.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		purged, err := s.otps.PurgeExpired(ctx, time.Now().UTC())
		if err != nil {
			s.logger.ErrorContext(ctx, "otp sweep failed",
				"module", "sweeper",
				"operation", "purge_expired",
				"outcome", "failure",
				"error", err,
			)
		} else if purged > 0 {
			s.logger.InfoContext(ctx, "otp sweep completed",
				"module", "sweeper",
				"operation", "purge_expired",
				"outcome", "success",
				"purged_count", purged,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
