package gateway

import "errors"

// Ошибки клиента backend.
var (
	// ErrRequestFailed — транспортная ошибка или не-2xx ответ backend.
	ErrRequestFailed = errors.New("execution request failed")

	// ErrMalformedResult — backend ответил 2xx, но payload не прошёл
	// проверку формы (отсутствуют обязательные поля).
	ErrMalformedResult = errors.New("malformed execution result")
)
