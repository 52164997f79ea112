package dto

// BaseError: единый формат ошибки.
// Code: машинно-ориентированный код (snake_case), Message, короткое описание для человека,
// Fields: ошибки по полям для validation_error.
type BaseError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
}

// Коды ошибок оформления заказа.
const (
	CodeEmptyCart         = "empty_cart"
	CodeProductNotFound   = "product_not_found"
	CodeInsufficientStock = "insufficient_stock"
)

func NewValidationError(msg string, fields []FieldError) BaseError {
	return BaseError{Code: "validation_error", Message: msg, Fields: fields}
}

func NewBadRequestError(code, msg string) BaseError {
	return BaseError{Code: code, Message: msg}
}

func NewConflictError(msg string) BaseError {
	return BaseError{Code: "conflict", Message: msg}
}

func NewUnauthorizedError(msg string) BaseError {
	return BaseError{Code: "unauthorized", Message: msg}
}

func NewForbiddenError(msg string) BaseError {
	return BaseError{Code: "forbidden", Message: msg}
}

func NewNotFoundError(msg string) BaseError {
	return BaseError{Code: "not_found", Message: msg}
}

// NewInternalError никогда не раскрывает причину: детали остаются в логах.
func NewInternalError() BaseError {
	return BaseError{Code: "internal_error", Message: "internal server error"}
}
