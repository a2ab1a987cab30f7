package storageserver

import (
	"context"
	"time"

	"github.com/wolverine07/langos/internal/logger"
)

// CompactionConfig controls the optional quiescence compactor, grounded
// on the decision recorded in SPEC_FULL.md §6.3: spec.md leaves the
// modification log untrimmed by default, but explicitly invites a safe
// truncation policy as a demonstration. Off unless Enabled is set.
type CompactionConfig struct {
	Enabled bool

	// IdleWindow is how long the server must go without holding any
	// sentence lock before a compaction pass runs. Zero means 5 minutes.
	IdleWindow time.Duration
}

// RunCompactor runs the quiescence compactor until ctx is cancelled. A
// no-op unless cfg.Enabled — spec.md's default behavior (an unbounded
// modification log) never changes unless an operator opts in.
//
// Every tick, it checks whether the server has been free of sentence
// locks for a full IdleWindow; if so, it truncates modification-log
// entries below the watermark no currently in-flight WRITE session could
// still need (the lowest log-tip snapshot any held lock's session
// recorded — see compactionSnapshot). Because a session holds its
// sentence lock for its entire lifetime, "no lock held" also means no
// session is between its log-tip snapshot and its commit, so truncating
// down to the current log tip is always safe while the server is idle.
func (s *Server) RunCompactor(ctx context.Context, cfg CompactionConfig) {
	if !cfg.Enabled {
		return
	}
	idleWindow := cfg.IdleWindow
	if idleWindow <= 0 {
		idleWindow = 5 * time.Minute
	}

	tick := idleWindow / 2
	if tick < time.Second {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	logger.InfoCtx(ctx, "quiescence compactor started", "idle_window", idleWindow)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.compactIfIdle(ctx, idleWindow)
		}
	}
}

func (s *Server) compactIfIdle(ctx context.Context, idleWindow time.Duration) {
	idle, watermark := s.compactionSnapshot(idleWindow)
	if !idle {
		logger.DebugCtx(ctx, "compactor skipped, sentences still locked",
			"active_locks", s.activeSentenceLockCount())
		return
	}

	s.mu.Lock()
	before := len(s.modLog)
	s.mu.Unlock()

	s.compactModLog(watermark)

	s.mu.Lock()
	dropped := before - len(s.modLog)
	s.mu.Unlock()
	if dropped > 0 {
		logger.DebugCtx(ctx, "compacted modification log", "dropped", dropped, "watermark", watermark)
	}
}
