package scheduler

import (
	"context"
	"fmt"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/metrics"
	"courtbook/internal/schedule"

	"github.com/rs/zerolog"
)

const (
	JobBackup = "database_backup"
	JobPurge  = "purge_past_reservations"

	jobTimeout = 5 * time.Minute
)

// Backuper is the part of the backup service the scheduler drives.
type Backuper interface {
	PerformBackup(ctx context.Context) (string, error)
	CleanupOldBackups() int
}

// BackupTask snapshots the database and prunes expired snapshots.
func BackupTask(b Backuper, logger zerolog.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		path, err := b.PerformBackup(ctx)
		metrics.IncJob(JobBackup, err == nil)
		if err != nil {
			logger.Error().Err(err).Msg("Scheduled backup failed")
			return
		}
		removed := b.CleanupOldBackups()
		logger.Info().Str("path", path).Int("removed", removed).Msg("Scheduled backup finished")
	}
}

// PurgeTask deletes reservations dated more than keepDays before today.
// Open days are always in the future, so live bookings are never touched.
func PurgeTask(archive domain.ReservationArchive, calendar *schedule.Calendar, keepDays int, logger zerolog.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		cutoff := calendar.Today().AddDays(-keepDays)
		n, err := archive.PurgeReservationsBefore(ctx, cutoff)
		metrics.IncJob(JobPurge, err == nil)
		if err != nil {
			logger.Error().Err(err).Str("cutoff", cutoff.String()).Msg("Reservation purge failed")
			return
		}
		logger.Info().Int64("deleted", n).Str("cutoff", cutoff.String()).Msg("Past reservations purged")
	}
}

// RegisterBackup adds the backup job.
func (s *Service) RegisterBackup(cronExpr string, b Backuper) error {
	if _, err := s.AddJob(JobBackup, cronExpr, BackupTask(b, s.logger)); err != nil {
		return fmt.Errorf("register %s: %w", JobBackup, err)
	}
	return nil
}

// RegisterPurge adds the purge job. keepDays <= 0 disables it.
func (s *Service) RegisterPurge(cronExpr string, archive domain.ReservationArchive, calendar *schedule.Calendar, keepDays int) error {
	if keepDays <= 0 {
		s.logger.Info().Msg("Reservation purge disabled")
		return nil
	}
	if _, err := s.AddJob(JobPurge, cronExpr, PurgeTask(archive, calendar, keepDays, s.logger)); err != nil {
		return fmt.Errorf("register %s: %w", JobPurge, err)
	}
	return nil
}
