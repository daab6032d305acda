package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/savrin/flowpilot/internal/domain"
)

const defaultTimeout = 120 * time.Second

// Client — HTTP-клиент backend выполнения flows.
//
// Backend принимает POST /flows/{deviceSerial}/{flowID}/execute с пустым
// телом и возвращает JSON с результатом выполнения. Выполнение flow на
// устройстве может занимать минуты, поэтому таймаут по умолчанию
// заметно больше обычного API-клиента.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config — конфигурация клиента.
type Config struct {
	// BaseURL — адрес backend, например "http://localhost:9100" (обязателен).
	BaseURL string

	// Timeout — таймаут одного выполнения (default: 120s).
	Timeout time.Duration

	// Logger
	Logger *slog.Logger
}

// NewClient создаёт клиент backend.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// executeResponse — wire-формат результата выполнения.
//
// Обязательные поля объявлены указателями: отсутствие поля в JSON
// отличимо от нулевого значения и приводит к ErrMalformedResult.
type executeResponse struct {
	Success         *bool          `json:"success"`
	ExecutedSteps   *int           `json:"executed_steps"`
	FailedStep      *int           `json:"failed_step"`
	ErrorMessage    string         `json:"error_message"`
	ExecutionTimeMs *int64         `json:"execution_time_ms"`
	CapturedSensors map[string]any `json:"captured_sensors"`
}

// errorResponse — wire-формат ошибки backend.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Execute запускает flow на устройстве и ждёт результата.
//
// Тело запроса пустое: всё, что нужно backend, закодировано в пути.
// Не-2xx ответ превращается в ErrRequestFailed с сообщением из поля
// detail; 2xx без обязательных полей — в ErrMalformedResult.
func (c *Client) Execute(ctx context.Context, deviceSerial, flowID string) (*domain.ExecutionResult, error) {
	url := fmt.Sprintf("%s/flows/%s/%s/execute", c.baseURL, deviceSerial, flowID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrRequestFailed, err)
	}

	c.logger.Debug("calling backend", "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.backendError(resp)
	}

	var wire executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrMalformedResult, err)
	}

	return toResult(&wire)
}

// backendError извлекает человекочитаемое сообщение из не-2xx ответа.
func (c *Client) backendError(resp *http.Response) error {
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Detail == "" {
		return fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}
	return fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, resp.StatusCode, er.Detail)
}

// toResult валидирует форму wire-ответа и переводит его в доменный тип.
//
// success и executed_steps обязательны. Остальные поля опциональны и
// заменяются безопасными значениями: executionTimeMs=0, failedStep=nil,
// capturedSensors={}.
func toResult(wire *executeResponse) (*domain.ExecutionResult, error) {
	if wire.Success == nil {
		return nil, fmt.Errorf("%w: missing field success", ErrMalformedResult)
	}
	if wire.ExecutedSteps == nil {
		return nil, fmt.Errorf("%w: missing field executed_steps", ErrMalformedResult)
	}
	if *wire.ExecutedSteps < 0 {
		return nil, fmt.Errorf("%w: negative executed_steps", ErrMalformedResult)
	}

	result := &domain.ExecutionResult{
		Success:         *wire.Success,
		ExecutedSteps:   *wire.ExecutedSteps,
		FailedStep:      wire.FailedStep,
		ErrorMessage:    wire.ErrorMessage,
		CapturedSensors: wire.CapturedSensors,
	}
	if wire.ExecutionTimeMs != nil {
		result.ExecutionTimeMs = *wire.ExecutionTimeMs
	}
	if result.CapturedSensors == nil {
		result.CapturedSensors = map[string]any{}
	}
	return result, nil
}
