package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

const (
	orphanAuditJobName = "orphan_booking_audit"
	orphanAuditTimeout = time.Minute
)

// OrphanStore lists bookings whose owner does not reference them.
type OrphanStore interface {
	ListOrphanedBookings(ctx context.Context) ([]models.Booking, error)
}

// RegisterOrphanAuditJob schedules AuditOrphans on cronExpr.
func RegisterOrphanAuditJob(s *Service, store OrphanStore, cronExpr string) (gocron.Job, error) {
	if store == nil {
		return nil, fmt.Errorf("orphan audit job requires a store")
	}

	jobLogger := log.With().
		Str("component", "orphan_booking_audit_job").
		Str("job_name", orphanAuditJobName).
		Str("cron", cronExpr).
		Logger()

	job, err := s.AddJob(orphanAuditJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), orphanAuditTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if _, err := AuditOrphans(ctx, store); err != nil {
			jobLogger.Error().Err(err).Msg("Orphan booking audit failed")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeReschedule))
	if err != nil {
		return nil, fmt.Errorf("add orphan booking audit job: %w", err)
	}

	jobLogger.Info().Msg("Orphan booking audit job registered")
	return job, nil
}

// AuditOrphans logs every booking left behind by a partial write and returns
// how many were found. Nothing is repaired automatically.
func AuditOrphans(ctx context.Context, store OrphanStore) (int, error) {
	logger := log.Ctx(ctx)

	orphans, err := store.ListOrphanedBookings(ctx)
	if err != nil {
		return 0, fmt.Errorf("list orphaned bookings: %w", err)
	}
	for _, booking := range orphans {
		logger.Warn().
			Str("booking_id", booking.ID).
			Str("username", booking.Username).
			Str("date", models.FormatDate(booking.Date)).
			Str("start_time", booking.StartTime.String()).
			Msg("Orphaned booking needs reconciliation")
	}
	if len(orphans) > 0 {
		logger.Warn().Int("orphans", len(orphans)).Msg("Orphan booking audit found inconsistencies")
	} else {
		logger.Debug().Msg("Orphan booking audit found nothing")
	}
	return len(orphans), nil
}
