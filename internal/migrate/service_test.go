package migrate_test

import (
	"context"
	"testing"

	"db-bridge/internal/conn"
	"db-bridge/internal/migrate"
)

func TestService_CancelWithoutActiveJob(t *testing.T) {
	s := migrate.NewService(conn.NewRegistry())
	if err := s.Cancel(); err == nil {
		t.Error("Expected an error when no migration is running")
	}
}

func TestService_StartRejectsUnknownConnections(t *testing.T) {
	s := migrate.NewService(conn.NewRegistry())

	_, err := s.Start(context.Background(), migrate.Request{
		SourceID: "nope",
		TargetID: "nope",
	}, nil)
	if err == nil {
		t.Fatal("Expected an error for an unregistered source")
	}
	if err.Error() != "source connection not found" {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestService_StartClosesEmitterOnEarlyFailure(t *testing.T) {
	s := migrate.NewService(conn.NewRegistry())
	emitter := migrate.NewEmitter(8)

	if _, err := s.Start(context.Background(), migrate.Request{SourceID: "x", TargetID: "y"}, emitter); err == nil {
		t.Fatal("Expected an error")
	}

	// The channel must be closed so consumers never leak.
	select {
	case _, open := <-emitter.Events():
		if open {
			t.Error("Expected a closed, drained channel")
		}
	default:
		t.Error("Events channel still open after Start returned")
	}
}
