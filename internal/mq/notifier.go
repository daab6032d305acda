package mq

import (
	"context"
	"time"

	"github.com/savrin/flowpilot/internal/domain"
)

// Notifier переводит уведомления координатора о завершённых выполнениях
// в события execution.completed.
//
// Удовлетворяет интерфейсу StatusNotifier координатора: событие несёт
// только метаданные выполнения, по-шаговый отчёт в очередь не уходит.
type Notifier struct {
	publisher *Publisher
}

// NewNotifier создаёт Notifier поверх Publisher.
func NewNotifier(publisher *Publisher) *Notifier {
	return &Notifier{publisher: publisher}
}

// ExecutionCompleted публикует событие о завершённом выполнении.
func (n *Notifier) ExecutionCompleted(ctx context.Context, deviceSerial, flowID string, result *domain.ExecutionResult) error {
	return n.publisher.PublishExecutionCompleted(ctx, ExecutionCompletedPayload{
		DeviceSerial:  deviceSerial,
		FlowID:        flowID,
		Status:        string(result.Status()),
		ExecutedSteps: result.ExecutedSteps,
		DurationMs:    result.ExecutionTimeMs,
		CompletedAt:   time.Now(),
	})
}
