package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// DeviceResponse — устройство из API.
type DeviceResponse struct {
	ID             string `json:"id"`
	Serial         string `json:"serial"`
	Name           string `json:"name"`
	Model          string `json:"model,omitempty"`
	AndroidVersion string `json:"android_version,omitempty"`
	State          string `json:"state"`
	LastSeenAt     string `json:"last_seen_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// StepResponse — шаг flow из API.
type StepResponse struct {
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// FlowResponse — flow из API.
type FlowResponse struct {
	ID            string         `json:"id"`
	DeviceSerial  string         `json:"device_serial"`
	Name          string         `json:"name"`
	Steps         []StepResponse `json:"steps"`
	LastRunAt     string         `json:"last_run_at,omitempty"`
	LastRunStatus string         `json:"last_run_status,omitempty"`
	CreatedAt     string         `json:"created_at"`
}

// StepReportResponse — классифицированный шаг в отчёте о выполнении.
type StepReportResponse struct {
	Index       int    `json:"index"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// ReportResponse — отчёт о выполнении flow.
type ReportResponse struct {
	Success         bool                 `json:"success"`
	Status          string               `json:"status"`
	ExecutedSteps   int                  `json:"executed_steps"`
	FailedStep      *int                 `json:"failed_step,omitempty"`
	ErrorMessage    string               `json:"error_message,omitempty"`
	ExecutionTimeMs int64                `json:"execution_time_ms"`
	CapturedSensors map[string]any       `json:"captured_sensors,omitempty"`
	Steps           []StepReportResponse `json:"steps"`
}

// ExecutionResponse — запись из истории выполнений.
type ExecutionResponse struct {
	ID           string         `json:"id"`
	FlowID       string         `json:"flow_id"`
	DeviceSerial string         `json:"device_serial"`
	Status       string         `json:"status"`
	Report       ReportResponse `json:"report"`
	CreatedAt    string         `json:"created_at"`
}

// ScheduleResponse — schedule из API.
type ScheduleResponse struct {
	ID        string `json:"id"`
	FlowID    string `json:"flow_id"`
	Name      string `json:"name"`
	CronExpr  string `json:"cron_expr"`
	Timezone  string `json:"timezone"`
	Enabled   bool   `json:"enabled"`
	NextDueAt string `json:"next_due_at,omitempty"`
	LastRunAt string `json:"last_run_at,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// --- Request types ---

// CreateDeviceRequest — регистрация устройства.
type CreateDeviceRequest struct {
	Serial         string `json:"serial"`
	Name           string `json:"name"`
	Model          string `json:"model,omitempty"`
	AndroidVersion string `json:"android_version,omitempty"`
	Passcode       string `json:"passcode,omitempty"`
}

// UpdateDeviceRequest — обновление устройства.
type UpdateDeviceRequest struct {
	Name           *string `json:"name,omitempty"`
	Model          *string `json:"model,omitempty"`
	AndroidVersion *string `json:"android_version,omitempty"`
	Passcode       *string `json:"passcode,omitempty"`
	State          *string `json:"state,omitempty"`
}

// StepRequest — шаг создаваемого flow.
type StepRequest struct {
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// CreateFlowRequest — создание flow.
type CreateFlowRequest struct {
	DeviceSerial string        `json:"device_serial"`
	Name         string        `json:"name"`
	Steps        []StepRequest `json:"steps"`
}

// CreateScheduleRequest — создание schedule.
type CreateScheduleRequest struct {
	Name     string `json:"name"`
	CronExpr string `json:"cron_expr"`
	Timezone string `json:"timezone,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// execTimeout — запуск flow ждёт завершения всех шагов на устройстве,
// обычный 30-секундный таймаут здесь не годится.
const execTimeout = 150 * time.Second

// Client — HTTP-клиент для FlowPilot API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	execClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		execClient: &http.Client{
			Timeout: execTimeout,
		},
	}
}

// --- Devices ---

// ListDevices возвращает все устройства.
func (c *Client) ListDevices() ([]DeviceResponse, error) {
	var devices []DeviceResponse
	err := c.list("/api/v1/devices", nil, &devices)
	return devices, err
}

// RegisterDevice регистрирует новое устройство.
func (c *Client) RegisterDevice(req CreateDeviceRequest) (*DeviceResponse, error) {
	var device DeviceResponse
	err := c.post("/api/v1/devices", req, &device)
	return &device, err
}

// GetDevice возвращает устройство по serial.
func (c *Client) GetDevice(serial string) (*DeviceResponse, error) {
	var device DeviceResponse
	err := c.get("/api/v1/devices/"+serial, &device)
	return &device, err
}

// UpdateDevice обновляет устройство.
func (c *Client) UpdateDevice(serial string, req UpdateDeviceRequest) (*DeviceResponse, error) {
	var device DeviceResponse
	err := c.put("/api/v1/devices/"+serial, req, &device)
	return &device, err
}

// DeleteDevice удаляет устройство.
func (c *Client) DeleteDevice(serial string) error {
	return c.delete("/api/v1/devices/" + serial)
}

// ListDeviceFlows возвращает flows устройства.
func (c *Client) ListDeviceFlows(serial string) ([]FlowResponse, error) {
	var flows []FlowResponse
	err := c.list("/api/v1/devices/"+serial+"/flows", nil, &flows)
	return flows, err
}

// --- Flows ---

// ListFlows возвращает все flows.
func (c *Client) ListFlows() ([]FlowResponse, error) {
	var flows []FlowResponse
	err := c.list("/api/v1/flows", nil, &flows)
	return flows, err
}

// CreateFlow создаёт новый flow.
func (c *Client) CreateFlow(req CreateFlowRequest) (*FlowResponse, error) {
	var flow FlowResponse
	err := c.post("/api/v1/flows", req, &flow)
	return &flow, err
}

// GetFlow возвращает flow по ID.
func (c *Client) GetFlow(id string) (*FlowResponse, error) {
	var flow FlowResponse
	err := c.get("/api/v1/flows/"+id, &flow)
	return &flow, err
}

// DeleteFlow удаляет flow.
func (c *Client) DeleteFlow(id string) error {
	return c.delete("/api/v1/flows/" + id)
}

// --- Executions ---

// ExecuteFlow запускает flow на устройстве и ждёт отчёт.
func (c *Client) ExecuteFlow(serial, flowID string) (*ReportResponse, error) {
	path := "/api/v1/devices/" + serial + "/flows/" + flowID + "/execute"

	resp, err := c.doWith(c.execClient, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return nil, err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var report ReportResponse
	if err := json.Unmarshal(dr.Data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListExecutions возвращает историю выполнений flow.
func (c *Client) ListExecutions(flowID string, limit int) ([]ExecutionResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var executions []ExecutionResponse
	err := c.list("/api/v1/flows/"+flowID+"/executions", params, &executions)
	return executions, err
}

// GetExecution возвращает запись о выполнении по ID.
func (c *Client) GetExecution(id string) (*ExecutionResponse, error) {
	var execution ExecutionResponse
	err := c.get("/api/v1/executions/"+id, &execution)
	return &execution, err
}

// --- Schedules ---

// ListSchedules возвращает schedules. Если flowID не пустой — фильтрует.
func (c *Client) ListSchedules(flowID string) ([]ScheduleResponse, error) {
	params := url.Values{}
	if flowID != "" {
		params.Set("flow_id", flowID)
	}

	var schedules []ScheduleResponse
	err := c.list("/api/v1/schedules", params, &schedules)
	return schedules, err
}

// CreateSchedule создаёт schedule для flow.
func (c *Client) CreateSchedule(flowID string, req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.post("/api/v1/flows/"+flowID+"/schedules", req, &schedule)
	return &schedule, err
}

// GetSchedule возвращает schedule по ID.
func (c *Client) GetSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.get("/api/v1/schedules/"+id, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет schedule.
func (c *Client) DeleteSchedule(id string) error {
	return c.delete("/api/v1/schedules/" + id)
}

// EnableSchedule включает schedule.
func (c *Client) EnableSchedule(id string) (*ScheduleResponse, error) {
	return c.setScheduleEnabled(id, true)
}

// DisableSchedule выключает schedule.
func (c *Client) DisableSchedule(id string) (*ScheduleResponse, error) {
	return c.setScheduleEnabled(id, false)
}

func (c *Client) setScheduleEnabled(id string, enabled bool) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": enabled}
	err := c.put("/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	return c.doWith(c.httpClient, method, path, body)
}

func (c *Client) doWith(client *http.Client, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return client.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
