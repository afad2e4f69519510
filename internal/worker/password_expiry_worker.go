package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/admin_api/internal/repository"
)

// PasswordExpiryWorker periodically flags accounts whose password is older
// than the rotation policy, so the forced-reset flag converges with the
// time-based rule even for accounts that never log in.
type PasswordExpiryWorker struct {
	adminRepo *repository.AdminUserRepository
	interval  time.Duration
	now       func() time.Time
}

// NewPasswordExpiryWorker constructs a PasswordExpiryWorker.
func NewPasswordExpiryWorker(adminRepo *repository.AdminUserRepository, interval time.Duration) *PasswordExpiryWorker {
	return &PasswordExpiryWorker{
		adminRepo: adminRepo,
		interval:  interval,
		now:       time.Now,
	}
}

// Start begins the periodic expiry sweep until context is canceled.
func (w *PasswordExpiryWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting password expiry worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("Password expiry worker stopped")
			return
		}
	}
}

func (w *PasswordExpiryWorker) run() {
	flagged, err := w.adminRepo.MarkExpiredPasswords(w.now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to mark expired passwords")
		return
	}
	if flagged > 0 {
		log.Info().Int64("accounts", flagged).Msg("Flagged accounts with expired passwords")
	}
}
