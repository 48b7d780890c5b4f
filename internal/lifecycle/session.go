// Package lifecycle drives shot state transitions for one project session.
// All generation-class commands share a single advisory slot so a second
// generation cannot start while one is outstanding; read-only operations
// such as approval toggling and asset selection bypass the slot.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"veopm/internal/costs"
	"veopm/internal/generate"
	"veopm/internal/logging"
	"veopm/internal/project"
	"veopm/internal/services"
	"veopm/internal/shot"
)

// Session owns lifecycle mutation for one project. It is the only writer of
// shot state; vault sync reads snapshots through the store.
type Session struct {
	store   *project.Store
	slug    string
	gen     generate.Generator
	logger  *slog.Logger
	gate    chan struct{}
	stopped atomic.Bool
}

// NewSession binds a lifecycle session to a project in the store.
func NewSession(store *project.Store, slug string, gen generate.Generator, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		store:  store,
		slug:   slug,
		gen:    gen,
		logger: logging.NewComponentLogger(logger, "lifecycle"),
		gate:   make(chan struct{}, 1),
	}
}

// stageContext annotates ctx for one lifecycle operation and returns a logger
// carrying the derived project, shot, and stage fields.
func (s *Session) stageContext(ctx context.Context, stage, shotID string) (context.Context, *slog.Logger) {
	ctx = services.WithProject(ctx, s.slug)
	ctx = services.WithShotID(ctx, shotID)
	ctx = services.WithStage(ctx, stage)
	return ctx, logging.WithContext(ctx, s.logger)
}

// Stop prevents new generation-class commands from starting. In-flight calls
// complete and their results are applied normally.
func (s *Session) Stop() {
	s.stopped.Store(true)
	s.logger.Info("generation stop requested", logging.String(logging.FieldProject, s.slug))
}

// Resume clears a previous stop request.
func (s *Session) Resume() {
	s.stopped.Store(false)
}

// Stopped reports whether a stop has been requested.
func (s *Session) Stopped() bool {
	return s.stopped.Load()
}

// acquireGate claims the single generation slot without blocking.
func (s *Session) acquireGate(operation string) error {
	if s.stopped.Load() {
		return services.Wrap(services.ErrBusy, "lifecycle", operation, "generation stopped", nil)
	}
	select {
	case s.gate <- struct{}{}:
		return nil
	default:
		return services.Wrap(services.ErrBusy, "lifecycle", operation, "another generation is in progress", nil)
	}
}

func (s *Session) releaseGate() {
	select {
	case <-s.gate:
	default:
	}
}

// loadShot fetches the shot or fails with a validation error naming it.
func (s *Session) loadShot(ctx context.Context, shotID string) (*shot.Shot, error) {
	sh, err := s.store.GetShot(ctx, s.slug, shotID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "load shot", fmt.Sprintf("shot %q not found", shotID), nil)
	}
	return sh, nil
}

func (s *Session) saveShot(ctx context.Context, sh *shot.Shot) error {
	return s.store.UpdateShot(ctx, s.slug, sh)
}

// recordUsage adds a completed text call's tokens onto the project counters.
func (s *Session) recordUsage(ctx context.Context, usage generate.Usage) {
	var delta costs.Summary
	delta.RecordText(usage.Tier, usage.InputTokens, usage.OutputTokens)
	if delta.TotalCalls() == 0 {
		return
	}
	if err := s.store.AddCosts(ctx, s.slug, delta); err != nil {
		logging.WithContext(ctx, s.logger).Warn("record usage", logging.Error(err))
	}
}

// recordImageCall adds one completed image call onto the project counters.
func (s *Session) recordImageCall(ctx context.Context) {
	var delta costs.Summary
	delta.RecordImage()
	if err := s.store.AddCosts(ctx, s.slug, delta); err != nil {
		logging.WithContext(ctx, s.logger).Warn("record image call", logging.Error(err))
	}
}
