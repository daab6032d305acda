package exec

import (
	"github.com/savrin/flowpilot/internal/domain"
)

// unknownErrorDetail подставляется вместо пустого error_message
// для упавшего шага.
const unknownErrorDetail = "Unknown error"

// Classify — чистая классификация результата выполнения по шагам flow.
//
// Для шага с индексом i:
//   - i < result.ExecutedSteps             → completed
//   - i == result.FailedStep (в границах)  → failed + текст ошибки
//   - иначе                                → skipped
//
// Классификатор доверяет счётчикам, а не флагу Success: даже при
// Success == true шаги после ExecutedSteps помечаются skipped.
// FailedStep вне диапазона [0, len(steps)) трактуется как отсутствующий —
// без подгонки к ближайшему индексу.
//
// Функция тотальна: nil flow даёт пустой список отчётов, nil result
// трактуется как нулевой результат (ни один шаг не выполнен).
func Classify(flow *domain.Flow, result *domain.ExecutionResult) []domain.StepReport {
	if flow == nil || len(flow.Steps) == 0 {
		return []domain.StepReport{}
	}

	if result == nil {
		result = &domain.ExecutionResult{}
	}

	// Индекс упавшего шага; -1 — нет упавшего шага.
	failedStep := -1
	if result.FailedStep != nil {
		if idx := *result.FailedStep; idx >= 0 && idx < len(flow.Steps) {
			failedStep = idx
		}
	}

	reports := make([]domain.StepReport, len(flow.Steps))
	for i, step := range flow.Steps {
		report := domain.StepReport{
			Index:       i,
			Type:        step.Type,
			Description: step.Description,
		}

		switch {
		case i < result.ExecutedSteps:
			report.Status = domain.StepStatusCompleted
		case i == failedStep:
			report.Status = domain.StepStatusFailed
			report.ErrorDetail = result.ErrorMessage
			if report.ErrorDetail == "" {
				report.ErrorDetail = unknownErrorDetail
			}
		default:
			report.Status = domain.StepStatusSkipped
		}

		reports[i] = report
	}

	return reports
}
