package apperr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "checklist", Message: "submission blocked", Failures: []string{"signature missing", "gr missing"}}
	assert.Equal(t, "checklist: submission blocked (signature missing; gr missing)", err.Error())

	assert.Equal(t, "amount: must be >= 0", Validation("amount", "must be >= %d", 0).Error())
}

func TestReferentialErrorMessage(t *testing.T) {
	assert.Equal(t, "vendor v-1 does not exist", MissingVendor("v-1").Error())

	err := &ReferentialError{Entity: "vendor", ID: "v-2", Message: "3 invoices still reference it"}
	assert.Equal(t, "vendor v-2: 3 invoices still reference it", err.Error())
}

func TestClassifiersSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("create invoice: %w", MissingVendor("x"))
	assert.True(t, IsReferential(wrapped))
	assert.False(t, IsValidation(wrapped))

	wrapped = fmt.Errorf("update: %w", Validation("invoice_number", "already exists"))
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsReferential(wrapped))
}
