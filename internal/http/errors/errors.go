// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает доменную ошибку сервиса, а на выход даёт:
//   - корректный HTTP-статус;
//   - короткий стабильный code и безопасное message без утечки деталей.
//
// Источник истинности по маппингу: переменные ошибок пакетов service и ratelimit.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-contacts-api/internal/ratelimit"
	"github.com/pribylovaa/go-contacts-api/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// rule — строка таблицы маппинга.
type rule struct {
	target  error
	status  int
	code    string
	message string
}

// Порядок важен: проверяется первая подходящая строка.
var rules = []rule{
	{service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument", "invalid argument"},
	{service.ErrVerification, http.StatusBadRequest, "verification_error", "verification error"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "unauthenticated", "could not validate credentials"},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, "invalid_refresh_token", "invalid refresh token"},
	{service.ErrInvalidEmail, http.StatusUnauthorized, "invalid_email", "invalid email"},
	{service.ErrInvalidPassword, http.StatusUnauthorized, "invalid_password", "invalid password"},
	{service.ErrEmailNotConfirmed, http.StatusUnauthorized, "email_not_confirmed", "email not confirmed"},
	{service.ErrContactNotFound, http.StatusNotFound, "not_found", "contact not found"},
	{service.ErrAccountExists, http.StatusConflict, "already_exists", "account already exists"},
	{service.ErrContactExists, http.StatusConflict, "already_exists", "contact already exists"},
	{service.ErrAvatarTooLarge, http.StatusRequestEntityTooLarge, "payload_too_large", "file is too large"},
	{service.ErrInvalidConfirmationToken, http.StatusUnprocessableEntity, "invalid_token", "invalid token for email verification"},
	{ratelimit.ErrRateLimited, http.StatusTooManyRequests, "rate_limited", "too many requests"},
	{context.Canceled, StatusClientClosedRequest, "canceled", "canceled"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"},
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: 500/internal, чтобы не
//     послать "200 OK" с телом ошибки и не маскировать баг;
//   - *service.ValidationError — 400 с указанием поля в message;
//   - ошибка из таблицы rules — соответствующий статус;
//   - прочее — 500/internal без утечки деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return internal()
	}

	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ErrorResponse{
			Error: APIError{Code: "invalid_argument", Message: ve.Error()},
		}
	}

	for _, rl := range rules {
		if errors.Is(err, rl.target) {
			return rl.status, ErrorResponse{
				Error: APIError{Code: rl.code, Message: rl.message},
			}
		}
	}

	return internal()
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, ErrorResponse{
		Error: APIError{
			Code:    "internal",
			Message: "internal error",
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
