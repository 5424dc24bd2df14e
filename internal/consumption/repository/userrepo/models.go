package userrepo

import (
	"context"
	"errors"

	"github.com/henjigg/consumption/internal/consumption/domain/models"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

// UnitOfWork stages mutations and commits them atomically. One per request;
// SaveChanges reports the number of affected records, 0 when nothing applied.
type UnitOfWork interface {
	Update(models.User) error
	Delete(models.User) error
	SaveChanges(ctx context.Context) (int64, error)
}
