package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL: srv.URL,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestClient_Execute_Success(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody []byte

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": false,
			"executed_steps": 2,
			"failed_step": 2,
			"error_message": "element not found",
			"execution_time_ms": 4200,
			"captured_sensors": {"battery": 87}
		}`))
	})

	result, err := client.Execute(context.Background(), "R58M123", "flow-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotPath != "/flows/R58M123/flow-1/execute" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if len(gotBody) != 0 {
		t.Errorf("request body should be empty, got %q", gotBody)
	}

	if result.Success {
		t.Error("expected success=false")
	}
	if result.ExecutedSteps != 2 {
		t.Errorf("expected 2 executed steps, got %d", result.ExecutedSteps)
	}
	if result.FailedStep == nil || *result.FailedStep != 2 {
		t.Errorf("expected failed step 2, got %v", result.FailedStep)
	}
	if result.ErrorMessage != "element not found" {
		t.Errorf("unexpected error message: %q", result.ErrorMessage)
	}
	if result.ExecutionTimeMs != 4200 {
		t.Errorf("expected 4200ms, got %d", result.ExecutionTimeMs)
	}
	if result.CapturedSensors["battery"] != float64(87) {
		t.Errorf("captured sensors should be passed through, got %v", result.CapturedSensors)
	}
}

func TestClient_Execute_OptionalFieldsDefaulted(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "executed_steps": 3}`))
	})

	result, err := client.Execute(context.Background(), "R58M123", "flow-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FailedStep != nil {
		t.Error("failed step should default to nil")
	}
	if result.ExecutionTimeMs != 0 {
		t.Errorf("execution time should default to 0, got %d", result.ExecutionTimeMs)
	}
	if result.CapturedSensors == nil || len(result.CapturedSensors) != 0 {
		t.Error("captured sensors should default to an empty map")
	}
	if result.ErrorMessage != "" {
		t.Errorf("error message should default to empty, got %q", result.ErrorMessage)
	}
}

func TestClient_Execute_MalformedMissingSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"executed_steps": 3}`))
	})

	_, err := client.Execute(context.Background(), "R58M123", "flow-1")
	if !errors.Is(err, ErrMalformedResult) {
		t.Errorf("expected ErrMalformedResult, got %v", err)
	}
}

func TestClient_Execute_MalformedMissingExecutedSteps(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true}`))
	})

	_, err := client.Execute(context.Background(), "R58M123", "flow-1")
	if !errors.Is(err, ErrMalformedResult) {
		t.Errorf("expected ErrMalformedResult, got %v", err)
	}
}

func TestClient_Execute_MalformedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	})

	_, err := client.Execute(context.Background(), "R58M123", "flow-1")
	if !errors.Is(err, ErrMalformedResult) {
		t.Errorf("expected ErrMalformedResult, got %v", err)
	}
}

func TestClient_Execute_NegativeExecutedSteps(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "executed_steps": -1}`))
	})

	_, err := client.Execute(context.Background(), "R58M123", "flow-1")
	if !errors.Is(err, ErrMalformedResult) {
		t.Errorf("expected ErrMalformedResult, got %v", err)
	}
}

func TestClient_Execute_BackendErrorWithDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail": "device is offline"}`))
	})

	_, err := client.Execute(context.Background(), "R58M123", "flow-1")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "device is offline") {
		t.Errorf("error should carry the backend detail message, got %q", err)
	}
}

func TestClient_Execute_BackendErrorWithoutDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`oops`))
	})

	_, err := client.Execute(context.Background(), "R58M123", "flow-1")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should mention the status code, got %q", err)
	}
}

func TestClient_Execute_ConnectionRefused(t *testing.T) {
	client := NewClient(Config{
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := client.Execute(context.Background(), "R58M123", "flow-1")
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("expected ErrRequestFailed, got %v", err)
	}
}
