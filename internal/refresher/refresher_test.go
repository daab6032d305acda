package refresher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/savrin/flowpilot/internal/domain"
	"github.com/savrin/flowpilot/internal/mq"
	"github.com/savrin/flowpilot/internal/repo"
)

// --- Test doubles ---

type fakeFlowStore struct {
	calls  int
	flowID uuid.UUID
	at     time.Time
	status domain.ExecutionStatus
	err    error
}

func (s *fakeFlowStore) UpdateLastRun(ctx context.Context, id uuid.UUID, at time.Time, status domain.ExecutionStatus) error {
	s.calls++
	s.flowID = id
	s.at = at
	s.status = status
	return s.err
}

type fakeDeviceStore struct {
	calls  int
	serial string
	at     time.Time
	err    error
}

func (s *fakeDeviceStore) MarkSeen(ctx context.Context, serial string, at time.Time) error {
	s.calls++
	s.serial = serial
	s.at = at
	return s.err
}

func newTestRefresher(flows *fakeFlowStore, devices *fakeDeviceStore) *Refresher {
	return New(Config{
		Flows:   flows,
		Devices: devices,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// --- Tests ---

func TestRefresher_Apply(t *testing.T) {
	flows := &fakeFlowStore{}
	devices := &fakeDeviceStore{}
	r := newTestRefresher(flows, devices)

	flowID := uuid.New()
	completedAt := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	err := r.Apply(context.Background(), mq.ExecutionCompletedPayload{
		DeviceSerial:  "R58M123",
		FlowID:        flowID.String(),
		Status:        "SUCCEEDED",
		ExecutedSteps: 3,
		DurationMs:    1500,
		CompletedAt:   completedAt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if flows.calls != 1 {
		t.Fatalf("expected 1 flow update, got %d", flows.calls)
	}
	if flows.flowID != flowID {
		t.Errorf("expected flow id %s, got %s", flowID, flows.flowID)
	}
	if flows.status != domain.ExecutionStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", flows.status)
	}
	if !flows.at.Equal(completedAt) {
		t.Errorf("expected completed_at %v, got %v", completedAt, flows.at)
	}

	if devices.calls != 1 {
		t.Fatalf("expected 1 device update, got %d", devices.calls)
	}
	if devices.serial != "R58M123" {
		t.Errorf("expected serial R58M123, got %s", devices.serial)
	}
}

func TestRefresher_Apply_FailedStatus(t *testing.T) {
	flows := &fakeFlowStore{}
	devices := &fakeDeviceStore{}
	r := newTestRefresher(flows, devices)

	err := r.Apply(context.Background(), mq.ExecutionCompletedPayload{
		DeviceSerial: "R58M123",
		FlowID:       uuid.New().String(),
		Status:       "FAILED",
		CompletedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if flows.status != domain.ExecutionStatusFailed {
		t.Errorf("expected FAILED, got %s", flows.status)
	}
	// Device is still marked seen: the backend did reach it
	if devices.calls != 1 {
		t.Errorf("expected device update on failed execution, got %d calls", devices.calls)
	}
}

func TestRefresher_Apply_InvalidFlowID(t *testing.T) {
	flows := &fakeFlowStore{}
	devices := &fakeDeviceStore{}
	r := newTestRefresher(flows, devices)

	err := r.Apply(context.Background(), mq.ExecutionCompletedPayload{
		DeviceSerial: "R58M123",
		FlowID:       "not-a-uuid",
		Status:       "SUCCEEDED",
	})

	// Malformed event is acknowledged, not retried
	if err != nil {
		t.Errorf("invalid flow id should be skipped, got %v", err)
	}
	if flows.calls != 0 || devices.calls != 0 {
		t.Error("no store calls expected for a malformed event")
	}
}

func TestRefresher_Apply_UnknownStatus(t *testing.T) {
	flows := &fakeFlowStore{}
	devices := &fakeDeviceStore{}
	r := newTestRefresher(flows, devices)

	err := r.Apply(context.Background(), mq.ExecutionCompletedPayload{
		DeviceSerial: "R58M123",
		FlowID:       uuid.New().String(),
		Status:       "MAYBE",
	})
	if err != nil {
		t.Errorf("unknown status should be skipped, got %v", err)
	}
	if flows.calls != 0 {
		t.Error("no flow update expected for an unknown status")
	}
}

func TestRefresher_Apply_DeletedFlowTolerated(t *testing.T) {
	flows := &fakeFlowStore{err: repo.ErrNotFound}
	devices := &fakeDeviceStore{}
	r := newTestRefresher(flows, devices)

	err := r.Apply(context.Background(), mq.ExecutionCompletedPayload{
		DeviceSerial: "R58M123",
		FlowID:       uuid.New().String(),
		Status:       "SUCCEEDED",
		CompletedAt:  time.Now(),
	})

	// Flow deleted after execution: event is still consumed and the
	// device update still happens
	if err != nil {
		t.Errorf("missing flow should be tolerated, got %v", err)
	}
	if devices.calls != 1 {
		t.Error("device should still be marked seen")
	}
}

func TestRefresher_Apply_StoreErrorPropagated(t *testing.T) {
	flows := &fakeFlowStore{err: errors.New("connection reset")}
	devices := &fakeDeviceStore{}
	r := newTestRefresher(flows, devices)

	err := r.Apply(context.Background(), mq.ExecutionCompletedPayload{
		DeviceSerial: "R58M123",
		FlowID:       uuid.New().String(),
		Status:       "SUCCEEDED",
		CompletedAt:  time.Now(),
	})

	// Transient DB errors must bubble up so the message is requeued
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestRefresher_Apply_ZeroCompletedAtDefaulted(t *testing.T) {
	flows := &fakeFlowStore{}
	devices := &fakeDeviceStore{}
	r := newTestRefresher(flows, devices)

	before := time.Now()
	err := r.Apply(context.Background(), mq.ExecutionCompletedPayload{
		DeviceSerial: "R58M123",
		FlowID:       uuid.New().String(),
		Status:       "SUCCEEDED",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if flows.at.Before(before) {
		t.Error("zero completed_at should default to the current time")
	}
}
