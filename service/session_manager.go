// Package service manages learner sessions and records finished runs.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beka-birhanu/vinom-sandbox/game"
	"github.com/beka-birhanu/vinom-sandbox/generator"
	"github.com/beka-birhanu/vinom-sandbox/identity"
	"github.com/beka-birhanu/vinom-sandbox/maze"
	"github.com/beka-birhanu/vinom-sandbox/service/i"
)

const (
	defaultMazeSize      = 21
	defaultMaxSessions   = 256
	defaultSessionTTL    = 30 * time.Minute
	defaultMaxDimension  = 101
	defaultRecordTimeout = 5 * time.Second
	minReapInterval      = time.Second
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
	ErrMazeTooLarge    = errors.New("maze too large")
)

// CreateSessionRequest describes a new session. Zero values pick defaults.
type CreateSessionRequest struct {
	Width           int
	Height          int
	Generator       string
	ExtraEdgeChance float64
	Seed            *int64
	Code            string
	Constants       map[string]int
}

// Config configures a SessionManager. Scoreboard and Reports are optional.
type Config struct {
	MaxSessions  int
	SessionTTL   time.Duration
	StepTimeout  time.Duration
	MaxDimension int
	Scoreboard   i.Scoreboard
	Reports      i.ReportRepo
	Logger       i.Logger
}

// SessionManager keeps the live sessions in memory, keyed by ID.
type SessionManager struct {
	sessions   map[uuid.UUID]*Session
	cfg        Config
	logger     i.Logger
	recordings sync.WaitGroup
	now        func() time.Time
	sync.RWMutex
}

// NewSessionManager creates a manager, filling unset limits with defaults.
func NewSessionManager(c *Config) *SessionManager {
	cfg := *c
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = defaultMaxDimension
	}
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &SessionManager{
		sessions: make(map[uuid.UUID]*Session),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Create generates a maze, compiles the code and registers a session owned by learner.
func (g *SessionManager) Create(learner identity.Learner, req CreateSessionRequest) (*Session, error) {
	if g.Len() >= g.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}

	s, err := g.build(learner, req)
	if err != nil {
		return nil, err
	}

	g.Lock()
	defer g.Unlock()
	if len(g.sessions) >= g.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}
	s.ID = uuid.New()
	for {
		if _, ok := g.sessions[s.ID]; !ok {
			break
		}
		s.ID = uuid.New()
	}
	g.sessions[s.ID] = s

	g.logger.Info(fmt.Sprintf("Created session %s on %s (seed %d) for %s", s.ID, s.Board(), s.Seed, learner.Name))
	return s, nil
}

func (g *SessionManager) build(learner identity.Learner, req CreateSessionRequest) (*Session, error) {
	if req.Width == 0 {
		req.Width = defaultMazeSize
	}
	if req.Height == 0 {
		req.Height = defaultMazeSize
	}
	if req.Width > g.cfg.MaxDimension || req.Height > g.cfg.MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d, limit %d", ErrMazeTooLarge, req.Width, req.Height, g.cfg.MaxDimension)
	}
	if req.Generator == "" {
		req.Generator = generator.NameKruskal
	}
	if err := generator.CheckChance(req.Generator, req.ExtraEdgeChance); err != nil {
		return nil, err
	}
	seed, ranked := rand.Int63(), true
	if req.Seed != nil {
		seed, ranked = *req.Seed, false
	}

	m, err := maze.New(req.Width, req.Height)
	if err != nil {
		return nil, err
	}
	err = generator.Generate(req.Generator, m,
		generator.WithSeed(seed),
		generator.WithExtraEdgeChance(req.ExtraEdgeChance),
	)
	if err != nil {
		return nil, err
	}

	constants := game.MazeConstants(m)
	for k, v := range req.Constants {
		constants[k] = v
	}
	opts := []game.Option{game.WithLogger(g.logger), game.WithConstants(constants)}
	if g.cfg.StepTimeout > 0 {
		opts = append(opts, game.WithStepTimeout(g.cfg.StepTimeout))
	}
	sim, err := game.NewSimulator(m, req.Code, opts...)
	if err != nil {
		return nil, err
	}

	now := g.now()
	s := &Session{
		Learner:         learner,
		Generator:       req.Generator,
		Width:           req.Width,
		Height:          req.Height,
		ExtraEdgeChance: req.ExtraEdgeChance,
		Seed:            seed,
		Ranked:          ranked,
		CreatedAt:       now,
		sim:             sim,
	}
	s.touch(now)
	sim.OnFinish(func(stats game.Stats) { g.finished(s, stats) })
	return s, nil
}

// Get returns the session id owned by learnerID. Sessions of other learners are reported as
// missing.
func (g *SessionManager) Get(learnerID, id uuid.UUID) (*Session, error) {
	g.RLock()
	s, ok := g.sessions[id]
	g.RUnlock()
	if !ok || s.Learner.ID != learnerID {
		return nil, ErrSessionNotFound
	}
	s.touch(g.now())
	return s, nil
}

// Delete stops and removes a session.
func (g *SessionManager) Delete(learnerID, id uuid.UUID) error {
	g.Lock()
	s, ok := g.sessions[id]
	if !ok || s.Learner.ID != learnerID {
		g.Unlock()
		return ErrSessionNotFound
	}
	delete(g.sessions, id)
	g.Unlock()

	s.sim.StopSimulating()
	g.logger.Info(fmt.Sprintf("Deleted session %s", id))
	return nil
}

// Len returns the number of live sessions.
func (g *SessionManager) Len() int {
	g.RLock()
	defer g.RUnlock()
	return len(g.sessions)
}

// Reap drops idle sessions until ctx is done.
func (g *SessionManager) Reap(ctx context.Context) error {
	interval := max(g.cfg.SessionTTL/4, minReapInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := g.reapIdle(g.now()); n > 0 {
				g.logger.Info(fmt.Sprintf("Reaped %d idle sessions", n))
			}
		}
	}
}

// reapIdle removes sessions not seen for SessionTTL and stops their timed runs.
func (g *SessionManager) reapIdle(now time.Time) int {
	g.Lock()
	defer g.Unlock()

	reaped := 0
	for id, s := range g.sessions {
		if now.Sub(s.LastSeen()) < g.cfg.SessionTTL {
			continue
		}
		s.sim.StopSimulating()
		delete(g.sessions, id)
		reaped++
	}
	return reaped
}

// Close stops every timed run and waits for them and for pending recordings.
func (g *SessionManager) Close() {
	g.Lock()
	sessions := make([]*Session, 0, len(g.sessions))
	for _, s := range g.sessions {
		sessions = append(sessions, s)
	}
	g.Unlock()

	for _, s := range sessions {
		s.sim.StopSimulating()
		<-s.sim.Done()
	}
	g.recordings.Wait()
}

// finished records the first finish of a session. It runs on the stepping goroutine, so the
// slow writes happen on their own. Only sessions on a drawn seed enter the scoreboard.
func (g *SessionManager) finished(s *Session, stats game.Stats) {
	if !s.recorded.CompareAndSwap(false, true) {
		return
	}
	if g.cfg.Scoreboard == nil && g.cfg.Reports == nil {
		return
	}

	report := &i.RunReport{
		ID:         uuid.New(),
		SessionID:  s.ID,
		LearnerID:  s.Learner.ID,
		Board:      s.Board(),
		Steps:      stats.Steps,
		MemoryUsed: stats.MemoryUsed,
		Code:       s.sim.StepCode(),
		FinishedAt: g.now().UTC(),
	}

	g.recordings.Add(1)
	go func() {
		defer g.recordings.Done()
		ctx, cancel := context.WithTimeout(context.Background(), defaultRecordTimeout)
		defer cancel()
		g.record(ctx, s.Learner, report, s.Ranked)
	}()
}

func (g *SessionManager) record(ctx context.Context, learner identity.Learner, report *i.RunReport, ranked bool) {
	if g.cfg.Reports != nil {
		if err := g.cfg.Reports.Save(ctx, report); err != nil {
			g.logger.Error(fmt.Sprintf("Saving report of session %s: %v", report.SessionID, err))
		}
	}
	if g.cfg.Scoreboard != nil && ranked {
		improved, err := g.cfg.Scoreboard.Submit(ctx, report.Board, learner, report.Steps)
		switch {
		case err != nil:
			g.logger.Error(fmt.Sprintf("Submitting score of session %s: %v", report.SessionID, err))
		case improved:
			g.logger.Info(fmt.Sprintf("New best on %s for %s: %d steps", report.Board, learner.Name, report.Steps))
		}
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string)   {}
func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}
func (nopLogger) Error(string)   {}
