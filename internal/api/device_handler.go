package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/savrin/flowpilot/internal/domain"
	"github.com/savrin/flowpilot/internal/repo"
)

// ListDevices возвращает список устройств.
// GET /api/v1/devices
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.deviceRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]DeviceResponse, len(devices))
	for i, d := range devices {
		result[i] = DeviceFromDomain(d)
	}

	List(w, result, len(result))
}

// CreateDevice регистрирует новое устройство.
// POST /api/v1/devices
func (h *Handler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var req CreateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Serial == "" {
		BadRequest(w, "serial is required")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	// Серийный номер уникален
	if _, err := h.deviceRepo.GetBySerial(r.Context(), req.Serial); err == nil {
		Conflict(w, ErrCodeConflict, "device with this serial already exists")
		return
	} else if !errors.Is(err, repo.ErrNotFound) {
		InternalError(w, h.logger, err)
		return
	}

	device := &domain.Device{
		ID:             uuid.New(),
		Serial:         req.Serial,
		Name:           req.Name,
		Model:          req.Model,
		AndroidVersion: req.AndroidVersion,
		Passcode:       req.Passcode,
		State:          domain.DeviceStateUnpaired,
		CreatedAt:      time.Now(),
	}

	if err := h.deviceRepo.Create(r.Context(), device); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, DeviceFromDomain(*device))
}

// GetDevice возвращает устройство по серийному номеру.
// GET /api/v1/devices/{serial}
func (h *Handler) GetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.deviceRepo.GetBySerial(r.Context(), r.PathValue("serial"))
	if HandleRepoError(w, h.logger, err, "device not found") {
		return
	}

	Success(w, DeviceFromDomain(*device))
}

// UpdateDevice обновляет устройство.
// PUT /api/v1/devices/{serial}
func (h *Handler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.deviceRepo.GetBySerial(r.Context(), r.PathValue("serial"))
	if HandleRepoError(w, h.logger, err, "device not found") {
		return
	}

	var req UpdateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name != nil {
		device.Name = *req.Name
	}
	if req.Model != nil {
		device.Model = *req.Model
	}
	if req.AndroidVersion != nil {
		device.AndroidVersion = *req.AndroidVersion
	}
	if req.Passcode != nil {
		device.Passcode = *req.Passcode
	}
	if req.State != nil {
		device.State = domain.ParseDeviceState(*req.State)
	}

	if err := h.deviceRepo.Update(r.Context(), device); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, DeviceFromDomain(*device))
}

// DeleteDevice удаляет устройство.
// DELETE /api/v1/devices/{serial}
func (h *Handler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.deviceRepo.GetBySerial(r.Context(), r.PathValue("serial"))
	if HandleRepoError(w, h.logger, err, "device not found") {
		return
	}

	if err := h.deviceRepo.Delete(r.Context(), device.ID); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}

// ListDeviceFlows возвращает flows устройства.
// GET /api/v1/devices/{serial}/flows
func (h *Handler) ListDeviceFlows(w http.ResponseWriter, r *http.Request) {
	serial := r.PathValue("serial")

	// Проверяем, что устройство существует
	_, err := h.deviceRepo.GetBySerial(r.Context(), serial)
	if HandleRepoError(w, h.logger, err, "device not found") {
		return
	}

	flows, err := h.flowRepo.ListByDevice(r.Context(), serial)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]FlowResponse, len(flows))
	for i, f := range flows {
		result[i] = FlowFromDomain(f)
	}

	List(w, result, len(result))
}
