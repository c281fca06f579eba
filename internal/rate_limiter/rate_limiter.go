package ratelimiter

import (
	"sync"
	"time"

	"github.com/stroytech/docvault/internal/config"
	"go.uber.org/zap"
)

// FixedWindowRateLimiter counts requests per client inside fixed time
// windows. Good enough for a single instance; state is in-process.
type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	cfg     config.RateLimiterConfig
	logger  *zap.SugaredLogger
}

type window struct {
	start time.Time
	count int
}

func NewRateLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		windows: make(map[string]*window),
		cfg:     cfg,
		logger:  logger,
	}
}

// Allow reports whether the client may proceed and, when it may not, how
// long until its window resets.
func (rl *FixedWindowRateLimiter) Allow(clientID string) (bool, time.Duration) {
	if !rl.cfg.Enabled {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[clientID]
	if !ok || now.Sub(w.start) >= rl.cfg.TimeFrame {
		rl.windows[clientID] = &window{start: now, count: 1}
		return true, 0
	}

	if w.count >= rl.cfg.RequestsPerTimeFrame {
		return false, rl.cfg.TimeFrame - now.Sub(w.start)
	}
	w.count++
	return true, 0
}
