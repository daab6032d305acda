package domain

// StepStatus — статус отдельного шага в отчёте о выполнении.
//
// Статус выводится классификатором из ExecutionResult:
//
//	completed — шаг выполнен (индекс строго меньше executed_steps)
//	failed    — шаг, на котором выполнение остановилось
//	skipped   — шаг не выполнялся
type StepStatus string

const (
	// StepStatusCompleted — шаг успешно выполнен.
	StepStatusCompleted StepStatus = "completed"

	// StepStatusFailed — шаг завершился ошибкой.
	StepStatusFailed StepStatus = "failed"

	// StepStatusSkipped — шаг не выполнялся (после сбоя или обрыва).
	StepStatusSkipped StepStatus = "skipped"
)

// ExecutionStatus — итоговый статус выполнения flow.
type ExecutionStatus string

const (
	// ExecutionStatusSucceeded — backend выполнил все шаги.
	ExecutionStatusSucceeded ExecutionStatus = "SUCCEEDED"

	// ExecutionStatusFailed — выполнение завершилось ошибкой.
	ExecutionStatusFailed ExecutionStatus = "FAILED"
)

// DeviceState — состояние сопряжения устройства.
type DeviceState string

const (
	// DeviceStatePaired — устройство сопряжено и доступно backend'у.
	DeviceStatePaired DeviceState = "PAIRED"

	// DeviceStateUnpaired — устройство зарегистрировано, но не сопряжено.
	DeviceStateUnpaired DeviceState = "UNPAIRED"
)

// ParseDeviceState парсит строку в DeviceState.
func ParseDeviceState(s string) DeviceState {
	switch s {
	case "PAIRED":
		return DeviceStatePaired
	default:
		return DeviceStateUnpaired
	}
}
