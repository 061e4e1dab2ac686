// Package handlers adapts HTTP requests to the service layer.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ndewijer/Property-Investment-Backend/internal/api/response"
	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/logger"
	"github.com/ndewijer/Property-Investment-Backend/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is required")

// parseJSON decodes the request body into T. Unknown fields are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errEmptyBody
		}
		return v, err
	}
	return v, nil
}

// parseOptionalJSON is parseJSON for endpoints whose body may be omitted.
func parseOptionalJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil || r.ContentLength == 0 {
		return v, nil
	}
	v, err := parseJSON[T](r)
	if errors.Is(err, errEmptyBody) {
		return v, nil
	}
	return v, err
}

// decodeRequest parses and validates a request body, writing a 400 response
// on failure. Returns false when the handler should stop.
func decodeRequest[T any](w http.ResponseWriter, r *http.Request, optional bool) (T, bool) {
	var (
		req T
		err error
	)
	if optional {
		req, err = parseOptionalJSON[T](r)
	} else {
		req, err = parseJSON[T](r)
	}
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return req, false
	}

	if err := validation.Struct(req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
			return req, false
		}
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return req, false
	}
	return req, true
}

// notFoundErrors are matched most specific first so the response names the missing entity.
var notFoundErrors = []error{
	apperrors.ErrInvestmentNotFound,
	apperrors.ErrInvestmentPropertyNotFound,
	apperrors.ErrPropertyNotFound,
	apperrors.ErrEscrowPaymentNotFound,
}

var badRequestErrors = []error{
	apperrors.ErrInvalidAmount,
	apperrors.ErrMissingReason,
	apperrors.ErrMissingContact,
	apperrors.ErrInvalidAppreciationModel,
	apperrors.ErrInvalidAppreciationRate,
}

var conflictErrors = []error{
	apperrors.ErrInvalidTransition,
	apperrors.ErrOversubscribed,
	apperrors.ErrStaleValue,
}

// respondServiceError maps a service error onto an HTTP status:
// business rule violations are 400, missing entities 404, state conflicts 409,
// everything else 500 with fallback as the message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback error) {
	if match := firstMatch(err, notFoundErrors); match != nil {
		response.RespondError(w, http.StatusNotFound, match.Error(), "")
		return
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		response.RespondError(w, http.StatusNotFound, err.Error(), "")
		return
	}
	if match := firstMatch(err, badRequestErrors); match != nil {
		response.RespondError(w, http.StatusBadRequest, match.Error(), "")
		return
	}
	if match := firstMatch(err, conflictErrors); match != nil {
		response.RespondError(w, http.StatusConflict, match.Error(), "")
		return
	}

	logger.Get().Errorw(fallback.Error(),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	response.RespondError(w, http.StatusInternalServerError, fallback.Error(), err.Error())
}

func firstMatch(err error, candidates []error) error {
	for _, c := range candidates {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}
