package migrate

import (
	"context"
	"errors"
	"sync"

	"db-bridge/internal/catalog"
	"db-bridge/internal/conn"
)

// Request describes one migration job.
type Request struct {
	SourceID             string
	TargetID             string
	Tables               []catalog.TableRef
	Options              Options
	TargetSchemaOverride string
}

// Service is the entry point the presentation layer talks to. It owns the
// connection registry reference and the active job's cancellation token.
type Service struct {
	registry *conn.Registry

	mu     sync.RWMutex
	active *CancelToken
}

func NewService(registry *conn.Registry) *Service {
	return &Service{registry: registry}
}

// Start runs a whole migration job and returns its Result. It is
// synchronous; progress streams through the emitter (which may be nil)
// while the job runs, and the emitter is closed when the job ends.
// Connection-resolution failures abort before anything is migrated.
func (s *Service) Start(ctx context.Context, req Request, emitter *Emitter) (Result, error) {
	defer emitter.Close()

	source, ok := s.registry.Pool(req.SourceID)
	if !ok {
		return Result{}, errors.New("source connection not found")
	}
	target, ok := s.registry.Pool(req.TargetID)
	if !ok {
		return Result{}, errors.New("target connection not found")
	}

	token := NewCancelToken()
	s.mu.Lock()
	s.active = token
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active = nil
		s.mu.Unlock()
	}()

	o := NewOrchestrator(source, target, req.Options, token, emitter, req.TargetSchemaOverride)
	return o.Run(ctx, req.Tables), nil
}

// Cancel flags the active job's token. The job stops at its next batch or
// table boundary; already-committed batches stay committed.
func (s *Service) Cancel() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return errors.New("no migration in progress")
	}
	s.active.Cancel()
	return nil
}

// SortTablesByDependency orders a selection so foreign-key parents come
// first. Pure over the catalog snapshot it reads; no side effects.
func (s *Service) SortTablesByDependency(ctx context.Context, connectionID string, selection []catalog.TableRef) ([]catalog.TableRef, error) {
	c, ok := s.registry.Pool(connectionID)
	if !ok {
		return nil, errors.New("connection not found")
	}
	deps, err := catalog.AllDependencies(ctx, c.DB, c.Dialect)
	if err != nil {
		return nil, err
	}
	return SortByDependency(selection, deps), nil
}
