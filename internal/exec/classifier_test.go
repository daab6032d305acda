package exec

import (
	"testing"

	"github.com/savrin/flowpilot/internal/domain"
)

func intPtr(v int) *int { return &v }

func testFlow(stepCount int) *domain.Flow {
	steps := make([]domain.Step, stepCount)
	for i := range steps {
		steps[i] = domain.Step{
			Type:        "tap",
			Description: "tap button",
		}
	}
	return &domain.Flow{Name: "test flow", Steps: steps}
}

func TestClassify_PartialFailure(t *testing.T) {
	flow := testFlow(4)
	result := &domain.ExecutionResult{
		Success:       false,
		ExecutedSteps: 2,
		FailedStep:    intPtr(2),
		ErrorMessage:  "timeout",
	}

	reports := Classify(flow, result)

	if len(reports) != 4 {
		t.Fatalf("expected 4 step reports, got %d", len(reports))
	}

	// Steps 0 and 1 ran to completion
	for i := 0; i < 2; i++ {
		if reports[i].Status != domain.StepStatusCompleted {
			t.Errorf("step %d: expected completed, got %s", i, reports[i].Status)
		}
		if reports[i].ErrorDetail != "" {
			t.Errorf("step %d: completed step should have no error detail", i)
		}
	}

	// Step 2 failed with the reported message
	if reports[2].Status != domain.StepStatusFailed {
		t.Errorf("step 2: expected failed, got %s", reports[2].Status)
	}
	if reports[2].ErrorDetail != "timeout" {
		t.Errorf("step 2: expected error detail %q, got %q", "timeout", reports[2].ErrorDetail)
	}

	// Step 3 was never reached
	if reports[3].Status != domain.StepStatusSkipped {
		t.Errorf("step 3: expected skipped, got %s", reports[3].Status)
	}
}

func TestClassify_AllCompleted(t *testing.T) {
	flow := testFlow(3)
	result := &domain.ExecutionResult{
		Success:       true,
		ExecutedSteps: 3,
	}

	reports := Classify(flow, result)

	if len(reports) != 3 {
		t.Fatalf("expected 3 step reports, got %d", len(reports))
	}
	for i, r := range reports {
		if r.Status != domain.StepStatusCompleted {
			t.Errorf("step %d: expected completed, got %s", i, r.Status)
		}
	}
}

func TestClassify_OutOfRangeFailedStep(t *testing.T) {
	flow := testFlow(3)
	result := &domain.ExecutionResult{
		Success:       false,
		ExecutedSteps: 1,
		FailedStep:    intPtr(99),
		ErrorMessage:  "element not found",
	}

	reports := Classify(flow, result)

	// Out-of-range index is treated as absent, not clamped: no step is failed
	if reports[0].Status != domain.StepStatusCompleted {
		t.Errorf("step 0: expected completed, got %s", reports[0].Status)
	}
	for i := 1; i < 3; i++ {
		if reports[i].Status != domain.StepStatusSkipped {
			t.Errorf("step %d: expected skipped, got %s", i, reports[i].Status)
		}
	}
}

func TestClassify_NegativeFailedStep(t *testing.T) {
	flow := testFlow(2)
	result := &domain.ExecutionResult{
		ExecutedSteps: 0,
		FailedStep:    intPtr(-1),
	}

	reports := Classify(flow, result)

	for i, r := range reports {
		if r.Status != domain.StepStatusSkipped {
			t.Errorf("step %d: expected skipped, got %s", i, r.Status)
		}
	}
}

func TestClassify_EmptyErrorMessage(t *testing.T) {
	flow := testFlow(2)
	result := &domain.ExecutionResult{
		ExecutedSteps: 1,
		FailedStep:    intPtr(1),
		ErrorMessage:  "",
	}

	reports := Classify(flow, result)

	if reports[1].Status != domain.StepStatusFailed {
		t.Fatalf("step 1: expected failed, got %s", reports[1].Status)
	}
	if reports[1].ErrorDetail != "Unknown error" {
		t.Errorf("expected placeholder error detail, got %q", reports[1].ErrorDetail)
	}
}

func TestClassify_SuccessFlagIgnored(t *testing.T) {
	flow := testFlow(3)

	// Backend claims success but reports only one executed step.
	// The counters win: remaining steps are skipped, not completed.
	result := &domain.ExecutionResult{
		Success:       true,
		ExecutedSteps: 1,
	}

	reports := Classify(flow, result)

	if reports[0].Status != domain.StepStatusCompleted {
		t.Errorf("step 0: expected completed, got %s", reports[0].Status)
	}
	if reports[1].Status != domain.StepStatusSkipped {
		t.Errorf("step 1: expected skipped, got %s", reports[1].Status)
	}
	if reports[2].Status != domain.StepStatusSkipped {
		t.Errorf("step 2: expected skipped, got %s", reports[2].Status)
	}
}

func TestClassify_StepMetadata(t *testing.T) {
	flow := &domain.Flow{
		Steps: []domain.Step{
			{Type: "launch_app", Description: "open settings"},
			{Type: "swipe", Description: "scroll down"},
		},
	}
	result := &domain.ExecutionResult{ExecutedSteps: 2}

	reports := Classify(flow, result)

	if reports[0].Index != 0 || reports[1].Index != 1 {
		t.Error("step indexes should match flow order")
	}
	if reports[0].Type != "launch_app" || reports[0].Description != "open settings" {
		t.Error("step type and description should be carried into the report")
	}
	if reports[1].Type != "swipe" || reports[1].Description != "scroll down" {
		t.Error("step type and description should be carried into the report")
	}
}

func TestClassify_NilFlow(t *testing.T) {
	result := &domain.ExecutionResult{Success: true, ExecutedSteps: 5}

	reports := Classify(nil, result)

	if reports == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(reports) != 0 {
		t.Errorf("expected 0 step reports for unknown flow, got %d", len(reports))
	}
}

func TestClassify_NilResult(t *testing.T) {
	flow := testFlow(2)

	reports := Classify(flow, nil)

	if len(reports) != 2 {
		t.Fatalf("expected 2 step reports, got %d", len(reports))
	}
	for i, r := range reports {
		if r.Status != domain.StepStatusSkipped {
			t.Errorf("step %d: expected skipped, got %s", i, r.Status)
		}
	}
}

func TestClassify_EmptySteps(t *testing.T) {
	flow := &domain.Flow{Steps: []domain.Step{}}
	result := &domain.ExecutionResult{Success: true, ExecutedSteps: 3}

	reports := Classify(flow, result)

	if len(reports) != 0 {
		t.Errorf("expected 0 step reports, got %d", len(reports))
	}
}
