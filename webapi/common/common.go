// Package common holds the shared response envelope, RFC 9457 problem
// details and request binding helpers for the web layer.
package common

import (
	"errors"

	"github.com/cashnoteio/cashnote/pkg/denomination"
	"github.com/cashnoteio/cashnote/pkg/domain"
	"github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/domain/user"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

// SuccessResponseJSON writes the standard success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ProblemDetailsJSON writes an RFC 9457 problem response. The status is
// derived from err via ErrorToStatusCode; pass a nil error with an explicit
// detail for non-domain failures.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, detail ...string) error {
	status := fiber.StatusInternalServerError
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		status = ErrorToStatusCode(err)
		pd.Detail = err.Error()
	}
	if len(detail) > 0 {
		pd.Detail = detail[0]
		if err == nil {
			status = fiber.StatusUnauthorized
		}
	}
	pd.Status = status
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(pd)
}

// ErrorResponseJSON writes a problem response with an explicit status.
func ErrorResponseJSON(c *fiber.Ctx, status int, title string, detail any) error {
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Instance: c.OriginalURL(),
	}
	if detail != nil {
		if s, ok := detail.(string); ok {
			pd.Detail = s
		} else {
			pd.Errors = detail
		}
	}
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(pd)
}

// ErrorToStatusCode maps domain errors to HTTP status codes. Every rejection
// keeps a distinguishable status: locked is 423, stolen and compliance
// rejections are 403, lost transfer races are 409.
func ErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, note.ErrInvalidReferenceCode),
		errors.Is(err, note.ErrSelfTransfer),
		errors.Is(err, denomination.ErrUnknownDenomination),
		errors.Is(err, denomination.ErrInvalidForeignCurrency),
		errors.Is(err, denomination.ErrInvalidForeignAmount),
		errors.Is(err, denomination.ErrInvalidExchangeRate):
		return fiber.StatusBadRequest
	case errors.Is(err, user.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, note.ErrNotOwner),
		errors.Is(err, note.ErrNoteStolen),
		errors.Is(err, note.ErrComplianceRejected),
		errors.Is(err, note.ErrProxyNotAuthorized),
		errors.Is(err, note.ErrProxyGrantExpired),
		errors.Is(err, note.ErrProxyCeilingExceeded):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, note.ErrTransferConflict),
		errors.Is(err, note.ErrTransferExpired),
		errors.Is(err, note.ErrTransferNotPending):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrLocked),
		errors.Is(err, note.ErrNoteLocked),
		errors.Is(err, note.ErrNoteNotTransferable):
		return fiber.StatusLocked
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using
// go-playground/validator. On failure the error response is already written
// and a nil pointer is returned.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return nil, ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation failed", err.Error())
	}
	return &input, nil
}
