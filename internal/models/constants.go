package models

const (
	// DefaultLockTTLSeconds bounds how long a per-date lock may be held.
	DefaultLockTTLSeconds = 5

	// DefaultLockWaitSeconds bounds how long a writer waits for the lock.
	DefaultLockWaitSeconds = 3

	// DefaultPurgeAfterDays keeps past reservations for this many days.
	DefaultPurgeAfterDays = 90

	// DefaultPurgeCron runs the purge job nightly.
	DefaultPurgeCron = "30 3 * * *"

	// DefaultBackupCron runs the backup job nightly.
	DefaultBackupCron = "0 3 * * *"

	// DefaultTokenTTLHours matches the 24h sessions issued at login.
	DefaultTokenTTLHours = 24

	// RateLimitRPS and RateLimitBurst apply per client key.
	RateLimitRPS   = 10
	RateLimitBurst = 20
)
