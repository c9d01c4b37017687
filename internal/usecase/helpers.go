package usecase

import (
	"context"
	"errors"
	"fmt"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// contextString reads a value set either by gin (c.Set, string key) or by
// context.WithValue with a CtxKey.
func contextString(ctx context.Context, key domain.CtxKey) string {
	if v, ok := ctx.Value(string(key)).(string); ok && v != "" {
		return v
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// requireAdmin checks if the current user has admin role
func requireAdmin(ctx context.Context) error {
	if contextString(ctx, domain.KeyUserRole) != domain.RoleAdmin {
		return apperror.Forbidden("Admin access required")
	}
	return nil
}

// actorID returns the authenticated user id, or "" for anonymous requests.
func actorID(ctx context.Context) string {
	return contextString(ctx, domain.KeyUserID)
}

// storeError maps repository sentinels onto caller-facing errors that carry
// the entity type and identifier.
func storeError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return apperror.NotFound(entity, id)
	case errors.Is(err, domain.ErrDuplicate):
		return apperror.ConflictEntity(entity, id, entity+" already exists")
	case errors.Is(err, domain.ErrStoreUnavailable):
		return apperror.StoreUnavailable(err)
	case errors.Is(err, domain.ErrUnknownField), errors.Is(err, domain.ErrInvalidValue):
		return apperror.Validation(err.Error(), nil)
	}
	return apperror.Internal(err)
}

func validateEntity(v *validator.Validate, entity interface{}) error {
	if err := v.Struct(entity); err != nil {
		return apperror.Validation("Validation failed", validation.FormatErrors(err))
	}
	return nil
}

// checkSlugAvailable rejects a write whose slug is held by another record.
// lookup returns the holder's id and name, or domain.ErrNotFound. The same
// name is a Conflict; a different name that slugs alike is a validation error.
func checkSlugAvailable(entity, field, id, name, slug string, lookup func() (string, string, error)) error {
	otherID, otherName, err := lookup()
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeError(err, entity, slug)
	}
	if otherID == id {
		return nil
	}
	if normalizeTitle(otherName) == normalizeTitle(name) {
		return apperror.ConflictEntity(entity, name, entity+" already exists")
	}
	msg := fmt.Sprintf("%q has the same slug %q as %s %q", name, slug, entity, otherName)
	return apperror.Validation(entity+" validation failed", []validation.FieldError{{Field: field, Message: msg}})
}
