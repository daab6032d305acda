package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/savrin/flowpilot/internal/domain"
)

// Device DTOs

// CreateDeviceRequest — запрос на регистрацию устройства.
type CreateDeviceRequest struct {
	Serial         string `json:"serial"`
	Name           string `json:"name"`
	Model          string `json:"model,omitempty"`
	AndroidVersion string `json:"android_version,omitempty"`
	Passcode       string `json:"passcode,omitempty"`
}

// UpdateDeviceRequest — запрос на обновление устройства.
type UpdateDeviceRequest struct {
	Name           *string `json:"name,omitempty"`
	Model          *string `json:"model,omitempty"`
	AndroidVersion *string `json:"android_version,omitempty"`
	Passcode       *string `json:"passcode,omitempty"`
	State          *string `json:"state,omitempty"`
}

// DeviceResponse — ответ с устройством.
// Passcode наружу не отдаётся.
type DeviceResponse struct {
	ID             uuid.UUID  `json:"id"`
	Serial         string     `json:"serial"`
	Name           string     `json:"name"`
	Model          string     `json:"model,omitempty"`
	AndroidVersion string     `json:"android_version,omitempty"`
	State          string     `json:"state"`
	LastSeenAt     *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// DeviceFromDomain конвертирует domain.Device в DeviceResponse.
func DeviceFromDomain(d domain.Device) DeviceResponse {
	return DeviceResponse{
		ID:             d.ID,
		Serial:         d.Serial,
		Name:           d.Name,
		Model:          d.Model,
		AndroidVersion: d.AndroidVersion,
		State:          string(d.State),
		LastSeenAt:     d.LastSeenAt,
		CreatedAt:      d.CreatedAt,
	}
}

// Flow DTOs

// CreateFlowRequest — запрос на создание flow.
type CreateFlowRequest struct {
	DeviceSerial string        `json:"device_serial"`
	Name         string        `json:"name"`
	Steps        []StepRequest `json:"steps"`
}

// StepRequest — один шаг flow в запросе.
type StepRequest struct {
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// FlowResponse — ответ с flow.
type FlowResponse struct {
	ID            uuid.UUID     `json:"id"`
	DeviceSerial  string        `json:"device_serial"`
	Name          string        `json:"name"`
	Steps         []domain.Step `json:"steps"`
	LastRunAt     *time.Time    `json:"last_run_at,omitempty"`
	LastRunStatus string        `json:"last_run_status,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// FlowFromDomain конвертирует domain.Flow в FlowResponse.
func FlowFromDomain(f domain.Flow) FlowResponse {
	return FlowResponse{
		ID:            f.ID,
		DeviceSerial:  f.DeviceSerial,
		Name:          f.Name,
		Steps:         f.Steps,
		LastRunAt:     f.LastRunAt,
		LastRunStatus: string(f.LastRunStatus),
		CreatedAt:     f.CreatedAt,
	}
}

// Execution DTOs

// StepReportResponse — классифицированный шаг в отчёте.
type StepReportResponse struct {
	Index       int    `json:"index"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// ExecutionReportResponse — отчёт о выполнении flow.
type ExecutionReportResponse struct {
	Success         bool                 `json:"success"`
	Status          string               `json:"status"`
	ExecutedSteps   int                  `json:"executed_steps"`
	FailedStep      *int                 `json:"failed_step,omitempty"`
	ErrorMessage    string               `json:"error_message,omitempty"`
	ExecutionTimeMs int64                `json:"execution_time_ms"`
	CapturedSensors map[string]any       `json:"captured_sensors,omitempty"`
	Steps           []StepReportResponse `json:"steps"`
}

// ReportFromDomain конвертирует domain.ExecutionReport в ExecutionReportResponse.
func ReportFromDomain(r *domain.ExecutionReport) ExecutionReportResponse {
	steps := make([]StepReportResponse, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = StepReportResponse{
			Index:       s.Index,
			Type:        s.Type,
			Description: s.Description,
			Status:      string(s.Status),
			ErrorDetail: s.ErrorDetail,
		}
	}

	return ExecutionReportResponse{
		Success:         r.Result.Success,
		Status:          string(r.Result.Status()),
		ExecutedSteps:   r.Result.ExecutedSteps,
		FailedStep:      r.Result.FailedStep,
		ErrorMessage:    r.Result.ErrorMessage,
		ExecutionTimeMs: r.Result.ExecutionTimeMs,
		CapturedSensors: r.Result.CapturedSensors,
		Steps:           steps,
	}
}

// ExecutionResponse — запись из истории выполнений.
type ExecutionResponse struct {
	ID           uuid.UUID               `json:"id"`
	FlowID       uuid.UUID               `json:"flow_id"`
	DeviceSerial string                  `json:"device_serial"`
	Status       string                  `json:"status"`
	Report       ExecutionReportResponse `json:"report"`
	CreatedAt    time.Time               `json:"created_at"`
}

// ExecutionFromDomain конвертирует domain.Execution в ExecutionResponse.
func ExecutionFromDomain(e domain.Execution) ExecutionResponse {
	report := domain.ExecutionReport{Result: e.Result, Steps: e.Steps}
	return ExecutionResponse{
		ID:           e.ID,
		FlowID:       e.FlowID,
		DeviceSerial: e.DeviceSerial,
		Status:       string(e.Status),
		Report:       ReportFromDomain(&report),
		CreatedAt:    e.CreatedAt,
	}
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	Name     string `json:"name"`
	CronExpr string `json:"cron_expr"`
	Timezone string `json:"timezone,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID        uuid.UUID  `json:"id"`
	FlowID    uuid.UUID  `json:"flow_id"`
	Name      string     `json:"name"`
	CronExpr  string     `json:"cron_expr"`
	Timezone  string     `json:"timezone"`
	Enabled   bool       `json:"enabled"`
	NextDueAt *time.Time `json:"next_due_at,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s domain.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:        s.ID,
		FlowID:    s.FlowID,
		Name:      s.Name,
		CronExpr:  s.CronExpr,
		Timezone:  s.Timezone,
		Enabled:   s.Enabled,
		NextDueAt: s.NextDueAt,
		LastRunAt: s.LastRunAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
