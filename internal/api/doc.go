// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, координатор, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - device_handler.go   — обработчики для /devices
//   - flow_handler.go     — обработчики для /flows
//   - execute_handler.go  — запуск flows и история выполнений
//   - schedule_handler.go — обработчики для /schedules
//
// API предоставляет REST endpoints для управления устройствами, flows,
// расписаниями и для запуска выполнений.
package api
