package exec

import "errors"

// Ошибки координатора.
var (
	// ErrEmptyDeviceSerial — не указан серийный номер устройства.
	ErrEmptyDeviceSerial = errors.New("device serial is empty")

	// ErrEmptyFlowID — не указан идентификатор flow.
	ErrEmptyFlowID = errors.New("flow id is empty")

	// ErrAlreadyRunning — flow уже выполняется на этом устройстве
	// (или ещё не истёк cool-down после предыдущего запуска).
	ErrAlreadyRunning = errors.New("flow is already running on this device")

	// ErrExecutionFailed — backend не смог выполнить flow
	// (сетевая ошибка, не-2xx ответ или некорректный payload).
	ErrExecutionFailed = errors.New("flow execution failed")
)
