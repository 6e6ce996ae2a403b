package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"aptracker/internal/apperr"
	"aptracker/internal/calendar"
	"aptracker/internal/checklist"
	"aptracker/internal/duedate"
	"aptracker/internal/lifecycle"
	"aptracker/internal/model"
	"aptracker/internal/money"
	"aptracker/internal/repository"

	"github.com/google/uuid"
)

// Actor identifies who performs an operation.
type Actor struct {
	UserID *uuid.UUID
	Name   string
	Role   string
}

// Label is what gets stored in created_by.
func (a Actor) Label() string {
	if a.Name != "" {
		return a.Name
	}
	if a.UserID != nil {
		return a.UserID.String()
	}
	return "system"
}

// Notifier receives invoice events after a successful commit.
type Notifier interface {
	Publish(event string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, interface{}) {}

// Invoice event names
const (
	EventInvoiceCreated      = "invoice.created"
	EventInvoiceUpdated      = "invoice.updated"
	EventInvoiceDeleted      = "invoice.deleted"
	EventInvoiceTransitioned = "invoice.transitioned"
)

// Rules carries the configured business constants shared by the services.
type Rules struct {
	DueDate          duedate.Rules
	Checklist        checklist.Config
	Policy           lifecycle.Policy
	Normalizer       *money.Normalizer
	Currencies       []string
	ForecastMonths   int
	DashboardHorizon int
}

// DefaultRules mirrors the shipped configuration.
func DefaultRules() Rules {
	return Rules{
		DueDate:          duedate.DefaultRules(),
		Checklist:        checklist.DefaultConfig(),
		Policy:           lifecycle.DefaultPolicy(),
		Normalizer:       money.DefaultNormalizer(),
		Currencies:       []string{money.IDR, money.USD, money.SGD},
		ForecastMonths:   3,
		DashboardHorizon: 14,
	}
}

func (r Rules) supportsCurrency(code string) bool {
	for _, c := range r.Currencies {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// parseID turns a path/body id into a uuid or a ValidationError.
func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperr.Validation(field, "invalid id %q", raw)
	}
	return id, nil
}

// optionalDate parses an optional YYYY-MM-DD value; nil or "" gives nil.
func optionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := calendar.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, apperr.Validation(field, "%v", err)
	}
	return &t, nil
}

// writeAudit records an audit row using ctx so it joins any open transaction.
func writeAudit(ctx context.Context, repo repository.AuditRepository, actor Actor, action, entityID, entityName string, details interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	entry := &model.AuditLog{
		UserID:     actor.UserID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// notFound wraps repository not-found errors with the entity name.
func notFound(entity string, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%s %w", entity, apperr.ErrNotFound)
	}
	return err
}

// duplicate converts a unique-key violation into a ValidationError. The
// field reported by the repository wins over the fallback.
func duplicate(fallback string, err error) error {
	if !errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	var dup *repository.DuplicateError
	if errors.As(err, &dup) && dup.Field != "" {
		return apperr.Validation(dup.Field, "%s already exists", dup.Value)
	}
	return apperr.Validation(fallback, "already exists")
}
