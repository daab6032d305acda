package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/savrin/flowpilot/internal/domain"
	"github.com/savrin/flowpilot/internal/exec"
)

type fakeExecutor struct {
	report *domain.ExecutionReport
	err    error

	serial string
	flowID string
}

func (e *fakeExecutor) Execute(ctx context.Context, deviceSerial, flowID string) (*domain.ExecutionReport, error) {
	e.serial = deviceSerial
	e.flowID = flowID
	return e.report, e.err
}

func newExecuteServer(t *testing.T, executor Executor) *httptest.Server {
	t.Helper()

	h := NewHandler(Config{
		Executor: executor,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/devices/{serial}/flows/{flowId}/execute", http.HandlerFunc(h.ExecuteFlow))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func executeRequest(t *testing.T, srv *httptest.Server, serial, flowID string) *http.Response {
	t.Helper()

	url := fmt.Sprintf("%s/api/v1/devices/%s/flows/%s/execute", srv.URL, serial, flowID)
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestExecuteFlow_Success(t *testing.T) {
	failedStep := 1
	executor := &fakeExecutor{
		report: &domain.ExecutionReport{
			Result: domain.ExecutionResult{
				Success:       false,
				ExecutedSteps: 1,
				FailedStep:    &failedStep,
				ErrorMessage:  "timeout",
			},
			Steps: []domain.StepReport{
				{Index: 0, Type: "tap", Status: domain.StepStatusCompleted},
				{Index: 1, Type: "swipe", Status: domain.StepStatusFailed, ErrorDetail: "timeout"},
			},
		},
	}

	srv := newExecuteServer(t, executor)
	flowID := uuid.New().String()

	resp := executeRequest(t, srv, "R58M123", flowID)

	// Failed steps are still a report, not an API error
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if executor.serial != "R58M123" || executor.flowID != flowID {
		t.Errorf("executor got (%s, %s)", executor.serial, executor.flowID)
	}

	var body struct {
		Data ExecutionReportResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Status != "FAILED" {
		t.Errorf("expected status FAILED, got %s", body.Data.Status)
	}
	if len(body.Data.Steps) != 2 {
		t.Fatalf("expected 2 step reports, got %d", len(body.Data.Steps))
	}
	if body.Data.Steps[1].Status != "failed" || body.Data.Steps[1].ErrorDetail != "timeout" {
		t.Errorf("unexpected failed step report: %+v", body.Data.Steps[1])
	}
}

func TestExecuteFlow_AlreadyRunning(t *testing.T) {
	srv := newExecuteServer(t, &fakeExecutor{err: exec.ErrAlreadyRunning})

	resp := executeRequest(t, srv, "R58M123", uuid.New().String())

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error.Code != ErrCodeAlreadyRunning {
		t.Errorf("expected code ALREADY_RUNNING, got %s", body.Error.Code)
	}
}

func TestExecuteFlow_ExecutionFailed(t *testing.T) {
	cause := fmt.Errorf("%w: device is offline", exec.ErrExecutionFailed)
	srv := newExecuteServer(t, &fakeExecutor{err: cause})

	resp := executeRequest(t, srv, "R58M123", uuid.New().String())

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error.Code != ErrCodeExecutionFailed {
		t.Errorf("expected code EXECUTION_FAILED, got %s", body.Error.Code)
	}
}

func TestExecuteFlow_UnexpectedError(t *testing.T) {
	srv := newExecuteServer(t, &fakeExecutor{err: errors.New("boom")})

	resp := executeRequest(t, srv, "R58M123", uuid.New().String())

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
