package app

import (
	"errors"
	"fmt"
	"net/http"

	"atelier/api/internal/contact"
	"atelier/api/internal/keycodec"
	"atelier/api/internal/store"
	"atelier/api/internal/upload"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, keycodec.ErrInvalidCategory), errors.Is(err, keycodec.ErrMissingSeparator):
		return http.StatusBadRequest, "INVALID_KEY", err.Error(), nil
	case errors.Is(err, contact.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", nil
	case errors.Is(err, contact.ErrHoneypot):
		return http.StatusBadRequest, "INVALID_REQUEST", "Invalid request", nil
	case errors.Is(err, contact.ErrMissingFields):
		return http.StatusBadRequest, "VALIDATION_ERROR", "All fields are required", nil
	case errors.Is(err, contact.ErrTooManyLinks):
		return http.StatusBadRequest, "TOO_MANY_LINKS", "Too many links in message", nil
	case errors.Is(err, contact.ErrVerificationFailed):
		return http.StatusBadRequest, "VERIFICATION_FAILED", "Verification failed", nil
	case errors.Is(err, upload.ErrNotConfigured):
		return http.StatusServiceUnavailable, "UPLOADS_UNAVAILABLE", "Uploads not configured", nil
	}
	var storageErr *store.StorageError
	if errors.As(err, &storageErr) {
		return http.StatusInternalServerError, "STORAGE_ERROR", "Storage failure", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
