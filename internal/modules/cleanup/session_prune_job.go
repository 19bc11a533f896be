package cleanup

import (
	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/session"
)

// SessionPruneJob evicts idle operator sessions.
type SessionPruneJob struct {
	sessions *session.Manager
	log      zerolog.Logger
}

// NewSessionPruneJob creates a new session prune job
func NewSessionPruneJob(sessions *session.Manager, log zerolog.Logger) *SessionPruneJob {
	return &SessionPruneJob{
		sessions: sessions,
		log:      log.With().Str("job", "session_prune").Logger(),
	}
}

// Name returns the job name for the scheduler
func (j *SessionPruneJob) Name() string {
	return "session_prune"
}

// Run executes the prune
func (j *SessionPruneJob) Run() error {
	removed := j.sessions.Prune()
	if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("Session prune completed")
	}
	return nil
}
