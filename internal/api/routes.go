package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Devices
	mux.Handle("GET /api/v1/devices", chain(http.HandlerFunc(h.ListDevices)))
	mux.Handle("POST /api/v1/devices", chain(http.HandlerFunc(h.CreateDevice)))
	mux.Handle("GET /api/v1/devices/{serial}", chain(http.HandlerFunc(h.GetDevice)))
	mux.Handle("PUT /api/v1/devices/{serial}", chain(http.HandlerFunc(h.UpdateDevice)))
	mux.Handle("DELETE /api/v1/devices/{serial}", chain(http.HandlerFunc(h.DeleteDevice)))
	mux.Handle("GET /api/v1/devices/{serial}/flows", chain(http.HandlerFunc(h.ListDeviceFlows)))

	// Flows
	mux.Handle("GET /api/v1/flows", chain(http.HandlerFunc(h.ListFlows)))
	mux.Handle("POST /api/v1/flows", chain(http.HandlerFunc(h.CreateFlow)))
	mux.Handle("GET /api/v1/flows/{id}", chain(http.HandlerFunc(h.GetFlow)))
	mux.Handle("DELETE /api/v1/flows/{id}", chain(http.HandlerFunc(h.DeleteFlow)))

	// Executions
	mux.Handle("POST /api/v1/devices/{serial}/flows/{flowId}/execute", chain(http.HandlerFunc(h.ExecuteFlow)))
	mux.Handle("GET /api/v1/flows/{id}/executions", chain(http.HandlerFunc(h.ListFlowExecutions)))
	mux.Handle("GET /api/v1/executions/{id}", chain(http.HandlerFunc(h.GetExecution)))

	// Schedules
	mux.Handle("GET /api/v1/schedules", chain(http.HandlerFunc(h.ListSchedules)))
	mux.Handle("POST /api/v1/flows/{id}/schedules", chain(http.HandlerFunc(h.CreateSchedule)))
	mux.Handle("GET /api/v1/schedules/{id}", chain(http.HandlerFunc(h.GetSchedule)))
	mux.Handle("DELETE /api/v1/schedules/{id}", chain(http.HandlerFunc(h.DeleteSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}/enabled", chain(http.HandlerFunc(h.SetScheduleEnabled)))
}
