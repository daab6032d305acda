// Package gateway содержит HTTP-клиент к backend, выполняющему flows
// на устройствах.
//
// Клиент отвечает за один вызов: запуск flow на устройстве и разбор
// результата. Валидация формы ответа происходит здесь: 2xx-ответ без
// обязательных числовых полей — это ErrMalformedResult, а не нулевой
// результат.
package gateway
