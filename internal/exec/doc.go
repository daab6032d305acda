// Package exec содержит координатор выполнения flows.
//
// Состав:
//   - guard.go       — single-flight guard по ключу (устройство, flow)
//   - coordinator.go — Coordinator: захват guard, вызов backend,
//     классификация результата, уведомление о завершении
//   - classifier.go  — чистая классификация шагов (completed/failed/skipped)
//
// Координатор гарантирует, что один и тот же flow не выполняется на одном
// устройстве дважды одновременно (в рамках одного экземпляра Coordinator),
// и что guard никогда не остаётся захваченным после ошибки выполнения.
package exec
