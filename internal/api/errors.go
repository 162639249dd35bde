package api

import (
	"errors"
	"net/http"

	"github.com/micro-nova/hdmitx/internal/hardware"
	"github.com/micro-nova/hdmitx/internal/lt8618"
)

// AppError is a structured API error with HTTP status code.
type AppError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

// Error constructors.
var (
	ErrBadRequest = func(msg string) *AppError {
		return &AppError{Code: "BAD_REQUEST", Message: msg, Status: http.StatusBadRequest}
	}
	ErrConflict = func(msg string) *AppError {
		return &AppError{Code: "CONFLICT", Message: msg, Status: http.StatusConflict}
	}
	ErrBus = func(msg string) *AppError {
		return &AppError{Code: "BUS_ERROR", Message: msg, Status: http.StatusBadGateway}
	}
	ErrInternal = func(msg string) *AppError {
		return &AppError{Code: "INTERNAL", Message: msg, Status: http.StatusInternalServerError}
	}
)

// toAppError classifies an error returned by the domain.
func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var busErr *hardware.BusError
	switch {
	case errors.As(err, &busErr):
		return ErrBus(err.Error())
	case errors.Is(err, lt8618.ErrUnknownChip),
		errors.Is(err, lt8618.ErrUnsupportedMode),
		errors.Is(err, lt8618.ErrNotProductionDevice):
		return ErrConflict(err.Error())
	default:
		return ErrInternal(err.Error())
	}
}
