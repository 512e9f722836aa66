// Package apierror builds the problem responses returned by the API.
package apierror

import (
	"errors"

	"github.com/Alia5/vkbd/apitypes"
	"github.com/Alia5/vkbd/keyboard"
	"github.com/Alia5/vkbd/layout"
)

func ErrBadRequest(detail string) *apitypes.ApiError {
	return &apitypes.ApiError{Status: 400, Title: "Bad Request", Detail: detail}
}
func ErrUnauthorized(detail string) *apitypes.ApiError {
	return &apitypes.ApiError{Status: 401, Title: "Unauthorized", Detail: detail}
}
func ErrNotFound(detail string) *apitypes.ApiError {
	return &apitypes.ApiError{Status: 404, Title: "Not Found", Detail: detail}
}
func ErrConflict(detail string) *apitypes.ApiError {
	return &apitypes.ApiError{Status: 409, Title: "Conflict", Detail: detail}
}
func ErrUnprocessable(detail string) *apitypes.ApiError {
	return &apitypes.ApiError{Status: 422, Title: "Unprocessable Entity", Detail: detail}
}
func ErrInternal(detail string) *apitypes.ApiError {
	return &apitypes.ApiError{Status: 500, Title: "Internal Server Error", Detail: detail}
}

// WrapError normalizes any error into *apitypes.ApiError. Domain errors map
// to the matching status; anything else is a 500.
func WrapError(err error) *apitypes.ApiError {
	if err == nil {
		return nil
	}
	var ae *apitypes.ApiError
	if errors.As(err, &ae) {
		return ae
	}
	var v apitypes.ApiError
	if errors.As(err, &v) {
		return &v
	}
	switch {
	case errors.Is(err, layout.ErrUnknownLayout),
		errors.Is(err, layout.ErrNoLayoutForLocale):
		return ErrNotFound(err.Error())
	case errors.Is(err, layout.ErrLayoutExists):
		return ErrConflict(err.Error())
	case errors.Is(err, layout.ErrOutOfRange),
		errors.Is(err, layout.ErrInvalidLocale),
		errors.Is(err, layout.ErrInvalidLayout),
		errors.Is(err, layout.ErrInvalidSlot),
		errors.Is(err, layout.ErrUnknownFunctionKey):
		return ErrBadRequest(err.Error())
	case errors.Is(err, keyboard.ErrUnreachable):
		return ErrUnprocessable(err.Error())
	}
	return ErrInternal(err.Error())
}
