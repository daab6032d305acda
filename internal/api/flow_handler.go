package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/savrin/flowpilot/internal/domain"
)

// ListFlows возвращает список всех flows.
// GET /api/v1/flows
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := h.flowRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]FlowResponse, len(flows))
	for i, f := range flows {
		result[i] = FlowFromDomain(f)
	}

	List(w, result, len(result))
}

// CreateFlow создаёт новый flow.
// POST /api/v1/flows
func (h *Handler) CreateFlow(w http.ResponseWriter, r *http.Request) {
	var req CreateFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}
	if req.DeviceSerial == "" {
		BadRequest(w, "device_serial is required")
		return
	}
	if len(req.Steps) == 0 {
		BadRequest(w, "flow must have at least one step")
		return
	}
	for _, step := range req.Steps {
		if step.Type == "" {
			BadRequest(w, "step type is required")
			return
		}
	}

	// Устройство должно быть зарегистрировано
	_, err := h.deviceRepo.GetBySerial(r.Context(), req.DeviceSerial)
	if HandleRepoError(w, h.logger, err, "device not found") {
		return
	}

	steps := make([]domain.Step, len(req.Steps))
	for i, s := range req.Steps {
		steps[i] = domain.Step{
			Type:        s.Type,
			Description: s.Description,
			Params:      s.Params,
		}
	}

	flow := &domain.Flow{
		ID:           uuid.New(),
		DeviceSerial: req.DeviceSerial,
		Name:         req.Name,
		Steps:        steps,
		CreatedAt:    time.Now(),
	}

	if err := h.flowRepo.Create(r.Context(), flow); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, FlowFromDomain(*flow))
}

// GetFlow возвращает flow по ID.
// GET /api/v1/flows/{id}
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flow id")
		return
	}

	flow, err := h.flowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}

	Success(w, FlowFromDomain(*flow))
}

// DeleteFlow удаляет flow.
// DELETE /api/v1/flows/{id}
func (h *Handler) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flow id")
		return
	}

	err = h.flowRepo.Delete(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}

	NoContent(w)
}
