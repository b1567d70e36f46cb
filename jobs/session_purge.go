package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// SessionPurger deletes expired session rows. Satisfied by the auth
// repository.
type SessionPurger interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// SessionPurgeJob removes session records whose refresh tokens expired. The
// redis side expires on its own; this keeps the audit table from growing
// without bound.
type SessionPurgeJob struct {
	purger SessionPurger
	logger *slog.Logger
}

// NewSessionPurgeJob constructs a SessionPurgeJob.
func NewSessionPurgeJob(purger SessionPurger, logger *slog.Logger) *SessionPurgeJob {
	return &SessionPurgeJob{purger: purger, logger: logger}
}

// Handle processes TaskTypeSessionPurge tasks.
func (j *SessionPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	removed, err := j.purger.DeleteExpiredSessions(ctx)
	if err != nil {
		j.logger.Error("purge sessions", slog.Any("error", err))
		return err
	}
	if removed > 0 {
		j.logger.Info("purged sessions", slog.Int64("removed", removed))
	}
	return nil
}
