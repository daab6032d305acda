package domain

import (
	"time"

	"github.com/google/uuid"
)

// Flow — сценарий автоматизации для конкретного устройства.
//
// Flow — это упорядоченный список шагов, которые backend выполняет
// на устройстве. Порядок шагов значим: индекс шага (0..n-1) используется
// при классификации результата выполнения.
//
// После сохранения список шагов неизменяем — правка flow выполняется
// пересозданием.
type Flow struct {
	// ID — уникальный идентификатор flow.
	ID uuid.UUID `json:"id"`

	// DeviceSerial — серийный номер устройства, к которому привязан flow.
	DeviceSerial string `json:"device_serial"`

	// Name — имя flow (например, "wifi-toggle-check", "camera-smoke").
	Name string `json:"name"`

	// Steps — упорядоченный список шагов.
	Steps []Step `json:"steps"`

	// LastRunAt — время последнего выполнения.
	// Обновляется refresher'ом, не координатором.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastRunStatus — статус последнего выполнения.
	LastRunStatus ExecutionStatus `json:"last_run_status,omitempty"`

	// CreatedAt — время создания flow.
	CreatedAt time.Time `json:"created_at"`
}

// Step — один шаг автоматизации.
type Step struct {
	// Type — тип шага: "tap", "swipe", "input", "launch_app",
	// "read_sensor", "screenshot" и т.д. Интерпретируется backend'ом.
	Type string `json:"type"`

	// Description — необязательное описание шага для отчётов.
	Description string `json:"description,omitempty"`

	// Params — параметры шага (координаты, текст, имя пакета и т.п.).
	// Передаются backend'у как есть.
	Params map[string]any `json:"params,omitempty"`
}

// StepCount возвращает количество шагов flow.
func (f *Flow) StepCount() int {
	return len(f.Steps)
}
