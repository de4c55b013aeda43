package service

import (
	"context"
	"errors"

	"github.com/noah-isme/treasury-api/internal/repository"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

// storeError translates repository sentinels into application errors.
func storeError(err error, entity, fallback string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	case errors.Is(err, repository.ErrConflict):
		return appErrors.Clone(appErrors.ErrConflict, entity+" already exists")
	case errors.Is(err, repository.ErrVersionConflict):
		return appErrors.Clone(appErrors.ErrConflict, entity+" was modified by someone else, reload and retry")
	case errors.Is(err, repository.ErrProtected):
		return appErrors.Clone(appErrors.ErrBusinessRule, "default "+entity+" cannot be deleted")
	case errors.Is(err, repository.ErrInUse):
		return appErrors.Clone(appErrors.ErrBusinessRule, entity+" is still in use")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "request cancelled")
	default:
		return appErrors.Internal(err, fallback)
	}
}
