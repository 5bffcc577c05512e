package limiter

import (
	"log/slog"

	"github.com/aisa-it/templater/internal/templater/config"
)

type LimiterInt interface {
	CanOpenSession(active int) bool
	GetRemainingSessions(active int) int
}

var Limiter LimiterInt = CommunityLimiter{}

func Init(cfg *config.Config) {
	if cfg.ExternalLimiter == nil {
		slog.Info("Using Community limiter", "maxSessions", cfg.SessionLimit)
		Limiter = CommunityLimiter{MaxSessions: cfg.SessionLimit}
		return
	}
	Limiter = NewExternalLimiter(cfg.ExternalLimiter)
}

// CommunityLimiter ограничивает только число одновременных сессий, 0 - без ограничения.
type CommunityLimiter struct {
	MaxSessions int
}

func (c CommunityLimiter) CanOpenSession(active int) bool {
	return c.MaxSessions <= 0 || active < c.MaxSessions
}

func (c CommunityLimiter) GetRemainingSessions(active int) int {
	if c.MaxSessions <= 0 {
		return 99999999
	}
	return max(c.MaxSessions-active, 0)
}
