package repository

import (
	"errors"
	"fmt"

	"aptracker/internal/apperr"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("duplicate key")

// DuplicateError names the column whose unique constraint was violated.
// Field is empty when the backend does not report it.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return ErrDuplicate.Error()
	}
	return fmt.Sprintf("%s: %s %s", ErrDuplicate, e.Field, e.Value)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// translate maps gorm errors onto the repository/app taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
