package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/savrin/flowpilot/internal/domain"
	"github.com/savrin/flowpilot/internal/exec"
)

// ExecuteFlow запускает flow на устройстве и возвращает отчёт.
// POST /api/v1/devices/{serial}/flows/{flowId}/execute
//
// Коды ответа:
//   - 200 — выполнение завершилось, отчёт в теле (в том числе при
//     упавших шагах: сбой шага — это результат, а не ошибка API)
//   - 409 — flow уже выполняется на этом устройстве (или идёт cool-down)
//   - 502 — backend недоступен или вернул ошибку
func (h *Handler) ExecuteFlow(w http.ResponseWriter, r *http.Request) {
	serial := r.PathValue("serial")
	flowID := r.PathValue("flowId")

	if serial == "" {
		BadRequest(w, "device serial is required")
		return
	}
	if flowID == "" {
		BadRequest(w, "flow id is required")
		return
	}

	report, err := h.executor.Execute(r.Context(), serial, flowID)
	if err != nil {
		switch {
		case errors.Is(err, exec.ErrAlreadyRunning):
			Conflict(w, ErrCodeAlreadyRunning, "flow is already running on this device")
		case errors.Is(err, exec.ErrExecutionFailed):
			BadGateway(w, ErrCodeExecutionFailed, err.Error())
		case errors.Is(err, exec.ErrEmptyDeviceSerial), errors.Is(err, exec.ErrEmptyFlowID):
			BadRequest(w, err.Error())
		default:
			InternalError(w, h.logger, err)
		}
		return
	}

	h.recordExecution(r, serial, flowID, report)

	Success(w, ReportFromDomain(report))
}

// recordExecution сохраняет выполнение в историю.
// Ошибка записи не портит ответ: отчёт уже есть, история — best effort.
func (h *Handler) recordExecution(r *http.Request, serial, flowID string, report *domain.ExecutionReport) {
	if h.executionRepo == nil {
		return
	}

	id, err := uuid.Parse(flowID)
	if err != nil {
		return
	}

	execution := &domain.Execution{
		ID:           uuid.New(),
		FlowID:       id,
		DeviceSerial: serial,
		Status:       report.Result.Status(),
		Result:       report.Result,
		Steps:        report.Steps,
		CreatedAt:    time.Now(),
	}

	if err := h.executionRepo.Create(r.Context(), execution); err != nil {
		h.logger.Warn("failed to record execution history",
			"flow_id", flowID,
			"device", serial,
			"error", err,
		)
	}
}

// ListFlowExecutions возвращает историю выполнений flow.
// GET /api/v1/flows/{id}/executions?limit=...
func (h *Handler) ListFlowExecutions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flow id")
		return
	}

	// Проверяем, что flow существует
	_, err = h.flowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), 50)

	executions, err := h.executionRepo.ListByFlow(r.Context(), id, limit)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ExecutionResponse, len(executions))
	for i, e := range executions {
		result[i] = ExecutionFromDomain(e)
	}

	List(w, result, len(result))
}

// GetExecution возвращает запись о выполнении по ID.
// GET /api/v1/executions/{id}
func (h *Handler) GetExecution(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid execution id")
		return
	}

	execution, err := h.executionRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "execution not found") {
		return
	}

	Success(w, ExecutionFromDomain(*execution))
}

// parseLimit парсит limit из query с дефолтным значением.
func parseLimit(s string, defaultVal int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
