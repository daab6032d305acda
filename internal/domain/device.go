package domain

import (
	"time"

	"github.com/google/uuid"
)

// Device — зарегистрированное Android-устройство.
//
// Устройство регистрируется оператором и привязывается к backend
// по серийному номеру. Все flows и выполнения ссылаются на устройство
// через Serial — именно он используется в URL backend'а.
type Device struct {
	// ID — уникальный идентификатор записи об устройстве.
	ID uuid.UUID `json:"id"`

	// Serial — серийный номер устройства (идентификатор на стороне backend).
	// Уникален в рамках системы.
	Serial string `json:"serial"`

	// Name — человекочитаемое имя устройства (например, "pixel-7-lab-3").
	Name string `json:"name"`

	// Model — модель устройства.
	Model string `json:"model,omitempty"`

	// AndroidVersion — версия Android на устройстве.
	AndroidVersion string `json:"android_version,omitempty"`

	// Passcode — код разблокировки экрана, настроенный на устройстве.
	// Хранится, чтобы backend мог разблокировать устройство перед flow.
	Passcode string `json:"passcode,omitempty"`

	// State — состояние сопряжения устройства.
	State DeviceState `json:"state"`

	// LastSeenAt — время последнего успешного обращения к устройству.
	// Обновляется refresher'ом по событиям execution.completed.
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`

	// CreatedAt — время регистрации устройства.
	CreatedAt time.Time `json:"created_at"`
}

// IsPaired возвращает true, если устройство сопряжено с backend.
func (d *Device) IsPaired() bool {
	return d.State == DeviceStatePaired
}

// MarkSeen обновляет время последнего обращения.
func (d *Device) MarkSeen(at time.Time) {
	d.LastSeenAt = &at
}
