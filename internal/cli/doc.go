// Package cli реализует инструмент командной строки FlowPilot.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с FlowPilot API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления устройствами, flows, расписаниями
// и для запуска выполнений.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для FlowPilot API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок. Запуск flow (ExecuteFlow) идёт через отдельный
// http.Client с увеличенным таймаутом: вызов ждёт завершения всех
// шагов на устройстве.
//
//	client := cli.NewClient("http://localhost:8080")
//	devices, err := client.ListDevices()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: flowpilot flow list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - device: list, register, show, update, delete, flows
//   - flow: list, create, show, delete
//   - exec: run, list, show
//   - schedule: list, create, show, delete, enable, disable
//
// Каждая группа создаётся через фабричную функцию (NewDeviceCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
