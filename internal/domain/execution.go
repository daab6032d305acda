package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionResult — сырой результат выполнения flow от backend.
//
// Инварианты формата (гарантируются backend'ом, но не предполагаются
// классификатором):
//   - если Success == true, FailedStep == nil;
//   - если Success == false и FailedStep != nil, индекс указывает на шаг,
//     на котором остановилось выполнение.
type ExecutionResult struct {
	// Success — выполнил ли backend flow целиком.
	Success bool `json:"success"`

	// ExecutedSteps — количество выполненных шагов (>= 0).
	// Шаги со строго меньшим индексом считаются завершёнными.
	ExecutedSteps int `json:"executed_steps"`

	// FailedStep — индекс упавшего шага. Nil, если сбой не локализован
	// до конкретного шага (или сбоя не было).
	FailedStep *int `json:"failed_step,omitempty"`

	// ErrorMessage — текст ошибки от backend.
	ErrorMessage string `json:"error_message,omitempty"`

	// ExecutionTimeMs — длительность выполнения на устройстве, мс.
	ExecutionTimeMs int64 `json:"execution_time_ms"`

	// CapturedSensors — значения сенсоров, снятые шагами read_sensor.
	// Передаются в отчёт без изменений.
	CapturedSensors map[string]any `json:"captured_sensors,omitempty"`
}

// Status возвращает итоговый статус выполнения.
func (r *ExecutionResult) Status() ExecutionStatus {
	if r.Success {
		return ExecutionStatusSucceeded
	}
	return ExecutionStatusFailed
}

// StepReport — классифицированный результат одного шага.
//
// Производная структура: вычисляется из (Flow, ExecutionResult),
// нигде не хранится как источник истины.
type StepReport struct {
	// Index — индекс шага в flow (0..n-1).
	Index int `json:"index"`

	// Type — тип шага (копия Step.Type).
	Type string `json:"type"`

	// Description — описание шага (копия Step.Description).
	Description string `json:"description,omitempty"`

	// Status — статус шага: completed, failed или skipped.
	Status StepStatus `json:"status"`

	// ErrorDetail — текст ошибки для упавшего шага. Пустой для остальных.
	ErrorDetail string `json:"error_detail,omitempty"`
}

// ExecutionReport — итоговый отчёт координатора о выполнении.
type ExecutionReport struct {
	// Result — сырой результат от backend.
	Result ExecutionResult `json:"result"`

	// Steps — по-шаговая классификация. Ровно столько записей, сколько
	// шагов во flow; пустой список, если flow неизвестен реестру.
	Steps []StepReport `json:"steps"`
}

// Execution — сохранённая запись о выполнении (история).
type Execution struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// FlowID — flow, который выполнялся.
	FlowID uuid.UUID `json:"flow_id"`

	// DeviceSerial — устройство, на котором выполнялся flow.
	DeviceSerial string `json:"device_serial"`

	// Status — итоговый статус.
	Status ExecutionStatus `json:"status"`

	// Result — сырой результат от backend.
	Result ExecutionResult `json:"result"`

	// Steps — по-шаговая классификация на момент выполнения.
	Steps []StepReport `json:"steps"`

	// CreatedAt — время завершения выполнения.
	CreatedAt time.Time `json:"created_at"`
}
