package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

type Response struct {
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var httpStatus = map[apperr.Code]int{
	apperr.CodeInvalidArgument:    http.StatusBadRequest,
	apperr.CodeNotFound:           http.StatusNotFound,
	apperr.CodeAlreadyExists:      http.StatusConflict,
	apperr.CodePermissionDenied:   http.StatusForbidden,
	apperr.CodeUnauthenticated:    http.StatusUnauthorized,
	apperr.CodeFailedPrecondition: http.StatusUnprocessableEntity,
	apperr.CodeUnavailable:        http.StatusBadGateway,
	apperr.CodeResourceExhausted:  http.StatusTooManyRequests,
	apperr.CodeInternal:           http.StatusInternalServerError,
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errorMessages string
	for _, err := range errs {
		errorMessages += err.Field() + ": " + err.Tag() + "; "
	}

	return Response{
		Status: StatusError,
		Code:   string(apperr.CodeInvalidArgument),
		Error:  errorMessages,
	}
}

func RequestOK(message string, data interface{}) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// StatusFor maps an error onto its HTTP status.
func StatusFor(err error) int {
	if status, ok := httpStatus[apperr.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError writes err with the status its code maps to. Not-found errors
// always read "not found" so clients can tell them from failures. Server
// side failures are logged with their cause, which the body leaves out.
func FromError(w http.ResponseWriter, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return WriteJSON(w, http.StatusBadRequest, ValidationError(verrs))
	}

	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed",
			slog.String("error", err.Error()),
			slog.String("code", string(apperr.CodeOf(err))),
			slog.Int("status", status))
	}

	resp := Response{
		Status: StatusError,
		Code:   string(apperr.CodeOf(err)),
		Error:  err.Error(),
	}

	var appErr *apperr.AppError
	switch {
	case status == http.StatusNotFound:
		resp.Error = "not found"
		if errors.As(err, &appErr) {
			resp.Message = appErr.Message
		}
	case status == http.StatusInternalServerError:
		resp.Code = string(apperr.CodeInternal)
		resp.Error = "internal server error"
	case errors.As(err, &appErr) && status != http.StatusBadRequest:
		resp.Error = appErr.Message
	}

	return WriteJSON(w, status, resp)
}
