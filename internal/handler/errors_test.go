package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"aptracker/internal/apperr"
	"aptracker/internal/lifecycle"
	"aptracker/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("amount", "must be positive"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("create: %w", apperr.Validation("amount", "x")), http.StatusBadRequest},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("APPROVE: %w", apperr.ErrForbidden), http.StatusForbidden},
		{"not found", fmt.Errorf("invoice %w", apperr.ErrNotFound), http.StatusNotFound},
		{"referential", apperr.MissingVendor("v1"), http.StatusConflict},
		{"locked", apperr.ErrLocked, http.StatusConflict},
		{"transition", &lifecycle.TransitionError{From: lifecycle.StatusPaid, Action: lifecycle.ActionSubmit}, http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
