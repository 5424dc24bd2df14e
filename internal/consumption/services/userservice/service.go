package userservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/henjigg/consumption/internal/consumption/domain/models"
	"github.com/henjigg/consumption/internal/consumption/repository/userrepo"
	"github.com/henjigg/consumption/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrAlreadyExists    = errors.New("user already exists")
	ErrInvalidInput     = errors.New("account, username and password are required")
	ErrSaveFailed       = errors.New("saving changed nothing")
	ErrStoreUnavailable = errors.New("store unavailable")
)

type Repository interface {
	GetByID(ctx context.Context, id int) (models.User, bool, error)
	GetByAccount(ctx context.Context, account string) (models.User, bool, error)
	GetPagedList(ctx context.Context, search string, pageIndex, pageSize int) ([]models.User, int64, error)
	Begin() userrepo.UnitOfWork
}

type Cache interface {
	Invalidate(ctx context.Context, account string) error
}

type UserService struct {
	repo         Repository
	cache        Cache
	lg           logger.Logger
	queryTimeout time.Duration
}

func New(repo Repository, cache Cache, lg logger.Logger, queryTimeout time.Duration) *UserService {
	return &UserService{
		repo:         repo,
		cache:        cache,
		lg:           lg,
		queryTimeout: queryTimeout,
	}
}

func (us *UserService) GetUsers(ctx context.Context, req ListUsersRequest) (UserPage, error) {
	ctx, cancel := context.WithTimeout(ctx, us.queryTimeout)
	defer cancel()

	items, total, err := us.repo.GetPagedList(ctx, req.Search, req.PageIndex, req.PageSize)
	if err != nil {
		us.lg.Errorf("paged list error: %s", err.Error())

		return UserPage{}, ErrStoreUnavailable
	}

	for i := range items {
		items[i].PasswordHash = ""
	}

	return UserPage{Items: items, TotalCount: total}, nil
}

// EnsureAdmin creates the bootstrap administrator. The password is hashed at
// runtime, so no precomputed hash ever lives in migrations or config. An
// existing record with the account is left untouched, whatever its flags.
func (us *UserService) EnsureAdmin(ctx context.Context, account, password string) error {
	if strings.TrimSpace(account) == "" || strings.TrimSpace(password) == "" {
		return ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, us.queryTimeout)
	defer cancel()

	_, ok, err := us.repo.GetByAccount(ctx, account)
	if err != nil {
		us.lg.Errorf("get user error: %s", err.Error())

		return ErrStoreUnavailable
	}

	if ok {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("generate from password error: %w", err)
	}

	uow := us.repo.Begin()
	if err := uow.Update(models.User{ //nolint:exhaustruct
		Account:      account,
		PasswordHash: string(hash),
		UserName:     "Administrator",
		FlagAdmin:    true,
		CreateTime:   time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("stage user error: %w", err)
	}

	n, err := uow.SaveChanges(ctx)
	if err != nil {
		// Another instance won the first-start race; its record stands.
		if errors.Is(err, userrepo.ErrAlreadyExists) {
			return nil
		}

		us.lg.Errorf("save changes error: %s", err.Error())

		return ErrStoreUnavailable
	}

	if n == 0 {
		return ErrSaveFailed
	}

	return nil
}

// AddUser creates a user with administrative defaults regardless of what the
// caller sent: zero login counter, unlocked, not an administrator, creation
// time set to now.
func (us *UserService) AddUser(ctx context.Context, req CreateUserRequest) error {
	if strings.TrimSpace(req.Account) == "" ||
		strings.TrimSpace(req.UserName) == "" ||
		strings.TrimSpace(req.Password) == "" {
		return ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("generate from password error: %w", err)
	}

	u := models.User{
		ID:           0,
		Account:      req.Account,
		PasswordHash: string(hash),
		UserName:     req.UserName,
		Tel:          req.Tel,
		Email:        req.Email,
		Address:      req.Address,
		IsLocked:     false,
		FlagAdmin:    false,
		LoginCounter: 0,
		CreateTime:   time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, us.queryTimeout)
	defer cancel()

	uow := us.repo.Begin()
	if err := uow.Update(u); err != nil {
		return fmt.Errorf("stage user error: %w", err)
	}

	n, err := uow.SaveChanges(ctx)
	if err != nil {
		if errors.Is(err, userrepo.ErrAlreadyExists) {
			return ErrAlreadyExists
		}

		us.lg.Errorf("save changes error: %s", err.Error())

		return ErrStoreUnavailable
	}

	if n == 0 {
		return ErrSaveFailed
	}

	return nil
}

// UpdateUser overwrites the mutable fields of the record with the given id.
// Account and id are never reassigned; an empty password keeps the stored
// hash.
func (us *UserService) UpdateUser(ctx context.Context, id int, req UpdateUserRequest) error {
	ctx, cancel := context.WithTimeout(ctx, us.queryTimeout)
	defer cancel()

	u, ok, err := us.repo.GetByID(ctx, id)
	if err != nil {
		us.lg.Errorf("get user error: %s", err.Error())

		return ErrStoreUnavailable
	}

	if !ok {
		return ErrNotFound
	}

	u.UserName = req.UserName
	u.Tel = req.Tel
	u.Email = req.Email
	u.Address = req.Address
	u.IsLocked = req.IsLocked
	u.FlagAdmin = req.FlagAdmin

	if strings.TrimSpace(req.Password) != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("generate from password error: %w", err)
		}

		u.PasswordHash = string(hash)
	}

	uow := us.repo.Begin()
	if err := uow.Update(u); err != nil {
		return fmt.Errorf("stage user error: %w", err)
	}

	n, err := uow.SaveChanges(ctx)
	if err != nil {
		us.lg.Errorf("save changes error: %s", err.Error())

		return ErrStoreUnavailable
	}

	if n == 0 {
		return ErrNotFound
	}

	us.invalidate(ctx, u.Account)

	return nil
}

func (us *UserService) DeleteUser(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, us.queryTimeout)
	defer cancel()

	u, ok, err := us.repo.GetByID(ctx, id)
	if err != nil {
		us.lg.Errorf("get user error: %s", err.Error())

		return ErrStoreUnavailable
	}

	if !ok {
		return ErrNotFound
	}

	uow := us.repo.Begin()
	if err := uow.Delete(u); err != nil {
		return fmt.Errorf("stage delete error: %w", err)
	}

	n, err := uow.SaveChanges(ctx)
	if err != nil {
		us.lg.Errorf("save changes error: %s", err.Error())

		return ErrStoreUnavailable
	}

	// Concurrently removed elsewhere; report not found rather than failing.
	if n == 0 {
		return ErrNotFound
	}

	us.invalidate(ctx, u.Account)

	return nil
}

func (us *UserService) invalidate(ctx context.Context, account string) {
	if err := us.cache.Invalidate(ctx, account); err != nil {
		us.lg.Errorf("menu cache invalidate error: %s", err.Error())
	}
}
