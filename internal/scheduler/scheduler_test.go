package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/savrin/flowpilot/internal/domain"
	"github.com/savrin/flowpilot/internal/exec"
	"github.com/savrin/flowpilot/internal/repo"
)

// --- Test doubles ---

type fakeScheduleStore struct {
	due     []domain.Schedule
	listErr error

	mu      sync.Mutex
	updated []domain.Schedule
}

func (s *fakeScheduleStore) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Schedule, error) {
	return s.due, s.listErr
}

func (s *fakeScheduleStore) Update(ctx context.Context, schedule *domain.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, *schedule)
	return nil
}

type fakeFlowStore struct {
	flows map[uuid.UUID]*domain.Flow
}

func (s *fakeFlowStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error) {
	flow, ok := s.flows[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return flow, nil
}

type fakeExecutor struct {
	mu     sync.Mutex
	calls  []string
	report *domain.ExecutionReport
	err    error
}

func (e *fakeExecutor) Execute(ctx context.Context, deviceSerial, flowID string) (*domain.ExecutionReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, deviceSerial+"/"+flowID)
	return e.report, e.err
}

func (e *fakeExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

type fakeExecutionStore struct {
	mu      sync.Mutex
	created []domain.Execution
}

func (s *fakeExecutionStore) Create(ctx context.Context, execution *domain.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, *execution)
	return nil
}

func testSchedule(flowID uuid.UUID) domain.Schedule {
	due := time.Now().Add(-time.Minute)
	return domain.Schedule{
		ID:        uuid.New(),
		FlowID:    flowID,
		Name:      "nightly-smoke",
		CronExpr:  "0 3 * * *",
		Timezone:  "UTC",
		Enabled:   true,
		NextDueAt: &due,
	}
}

func successReport() *domain.ExecutionReport {
	return &domain.ExecutionReport{
		Result: domain.ExecutionResult{Success: true, ExecutedSteps: 2},
		Steps: []domain.StepReport{
			{Index: 0, Status: domain.StepStatusCompleted},
			{Index: 1, Status: domain.StepStatusCompleted},
		},
	}
}

// --- Cron Tests ---

func TestValidateCronExpr(t *testing.T) {
	if err := ValidateCronExpr("0 3 * * *"); err != nil {
		t.Errorf("valid expression rejected: %v", err)
	}
	if err := ValidateCronExpr("*/15 * * * *"); err != nil {
		t.Errorf("valid expression rejected: %v", err)
	}
	if err := ValidateCronExpr("not a cron"); err == nil {
		t.Error("invalid expression accepted")
	}
	if err := ValidateCronExpr("0 3 * *"); err == nil {
		t.Error("four-field expression accepted")
	}
}

func TestCalculateNextDue(t *testing.T) {
	sched := &domain.Schedule{CronExpr: "0 3 * * *", Timezone: "UTC"}
	from := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 8, 21, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestCalculateNextDue_Timezone(t *testing.T) {
	sched := &domain.Schedule{CronExpr: "0 3 * * *", Timezone: "Europe/Berlin"}
	from := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 03:00 Berlin in August is 01:00 UTC (CEST, UTC+2)
	want := time.Date(2026, 8, 21, 1, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestCalculateNextDue_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	sched := &domain.Schedule{CronExpr: "0 3 * * *", Timezone: "Mars/Olympus"}
	from := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 8, 21, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected UTC fallback %v, got %v", want, next)
	}
}

func TestCalculateNextDue_InvalidExpr(t *testing.T) {
	sched := &domain.Schedule{CronExpr: "garbage", Timezone: "UTC"}

	if _, err := CalculateNextDue(sched, time.Now()); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

// --- Scheduler Tests ---

func newTestScheduler(schedules *fakeScheduleStore, flows *fakeFlowStore, executor *fakeExecutor, executions ExecutionStore) *Scheduler {
	return New(Config{
		Schedules:  schedules,
		Flows:      flows,
		Executor:   executor,
		Executions: executions,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestScheduler_Tick_NoDueSchedules(t *testing.T) {
	executor := &fakeExecutor{report: successReport()}
	s := newTestScheduler(&fakeScheduleStore{}, &fakeFlowStore{}, executor, nil)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if executor.callCount() != 0 {
		t.Error("no executions expected")
	}
}

func TestScheduler_Tick_DispatchesDueSchedule(t *testing.T) {
	flowID := uuid.New()
	flow := &domain.Flow{ID: flowID, DeviceSerial: "R58M123", Name: "smoke"}

	schedules := &fakeScheduleStore{due: []domain.Schedule{testSchedule(flowID)}}
	flows := &fakeFlowStore{flows: map[uuid.UUID]*domain.Flow{flowID: flow}}
	executor := &fakeExecutor{report: successReport()}
	executions := &fakeExecutionStore{}

	s := newTestScheduler(schedules, flows, executor, executions)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Wait()

	if executor.callCount() != 1 {
		t.Fatalf("expected 1 execution, got %d", executor.callCount())
	}
	if executor.calls[0] != "R58M123/"+flowID.String() {
		t.Errorf("unexpected execution target: %s", executor.calls[0])
	}

	// Schedule was advanced before the run
	if len(schedules.updated) != 1 {
		t.Fatalf("expected 1 schedule update, got %d", len(schedules.updated))
	}
	updated := schedules.updated[0]
	if updated.LastRunAt == nil {
		t.Error("last_run_at should be set")
	}
	if updated.NextDueAt == nil || !updated.NextDueAt.After(time.Now()) {
		t.Error("next_due_at should be moved into the future")
	}

	// Execution history recorded
	executions.mu.Lock()
	defer executions.mu.Unlock()
	if len(executions.created) != 1 {
		t.Fatalf("expected 1 execution record, got %d", len(executions.created))
	}
	if executions.created[0].Status != domain.ExecutionStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", executions.created[0].Status)
	}
}

func TestScheduler_Tick_MissingFlowSkipped(t *testing.T) {
	schedules := &fakeScheduleStore{due: []domain.Schedule{testSchedule(uuid.New())}}
	executor := &fakeExecutor{report: successReport()}

	s := newTestScheduler(schedules, &fakeFlowStore{}, executor, nil)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Wait()

	if executor.callCount() != 0 {
		t.Error("no execution expected for a deleted flow")
	}
	// The schedule is left untouched: nothing to advance for a dead flow
	if len(schedules.updated) != 0 {
		t.Error("schedule should not be updated when the flow is missing")
	}
}

func TestScheduler_Tick_InvalidCronSkipped(t *testing.T) {
	flowID := uuid.New()
	flow := &domain.Flow{ID: flowID, DeviceSerial: "R58M123"}

	sched := testSchedule(flowID)
	sched.CronExpr = "garbage"

	schedules := &fakeScheduleStore{due: []domain.Schedule{sched}}
	flows := &fakeFlowStore{flows: map[uuid.UUID]*domain.Flow{flowID: flow}}
	executor := &fakeExecutor{report: successReport()}

	s := newTestScheduler(schedules, flows, executor, nil)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Wait()

	if executor.callCount() != 0 {
		t.Error("no execution expected for an invalid cron expression")
	}
}

func TestScheduler_Tick_AlreadyRunningTolerated(t *testing.T) {
	flowID := uuid.New()
	flow := &domain.Flow{ID: flowID, DeviceSerial: "R58M123"}

	schedules := &fakeScheduleStore{due: []domain.Schedule{testSchedule(flowID)}}
	flows := &fakeFlowStore{flows: map[uuid.UUID]*domain.Flow{flowID: flow}}
	executor := &fakeExecutor{err: exec.ErrAlreadyRunning}
	executions := &fakeExecutionStore{}

	s := newTestScheduler(schedules, flows, executor, executions)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("busy flow must not fail the tick: %v", err)
	}
	s.Wait()

	// Schedule still advanced: the slot is consumed, not retried
	if len(schedules.updated) != 1 {
		t.Errorf("expected 1 schedule update, got %d", len(schedules.updated))
	}
	executions.mu.Lock()
	defer executions.mu.Unlock()
	if len(executions.created) != 0 {
		t.Error("no execution record expected for a skipped run")
	}
}

func TestScheduler_Tick_OneFailureDoesNotBlockOthers(t *testing.T) {
	flowA, flowB := uuid.New(), uuid.New()
	flows := &fakeFlowStore{flows: map[uuid.UUID]*domain.Flow{
		// flowA is missing on purpose
		flowB: {ID: flowB, DeviceSerial: "R58M456"},
	}}

	schedules := &fakeScheduleStore{due: []domain.Schedule{
		testSchedule(flowA),
		testSchedule(flowB),
	}}
	executor := &fakeExecutor{report: successReport()}

	s := newTestScheduler(schedules, flows, executor, nil)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Wait()

	if executor.callCount() != 1 {
		t.Errorf("expected 1 execution for the healthy schedule, got %d", executor.callCount())
	}
}

func TestScheduler_Tick_ListError(t *testing.T) {
	schedules := &fakeScheduleStore{listErr: errors.New("db down")}
	s := newTestScheduler(schedules, &fakeFlowStore{}, &fakeExecutor{}, nil)

	if err := s.Tick(context.Background()); err == nil {
		t.Error("expected error when due listing fails")
	}
}
