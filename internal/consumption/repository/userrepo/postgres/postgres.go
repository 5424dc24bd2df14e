package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/henjigg/consumption/internal/consumption/domain/models"
	"github.com/henjigg/consumption/internal/consumption/repository/userrepo"
	"github.com/henjigg/consumption/internal/pkg/config"
	"github.com/henjigg/consumption/internal/pkg/pgrepo"
	"github.com/henjigg/consumption/internal/pkg/pgtools"
	"github.com/jackc/pgx/v5/pgxpool"
)

var userSpec = pgrepo.Spec[models.User]{
	Table:  "users",
	KeyCol: "id",
	Columns: []string{
		"id", "account", "password_hash", "user_name", "tel",
		"email", "address", "is_locked", "flag_admin", "login_counter", "create_time",
	},
	Key: func(u models.User) int { return u.ID },
	Row: func(u models.User) map[string]interface{} {
		return map[string]interface{}{
			"account":       u.Account,
			"password_hash": u.PasswordHash,
			"user_name":     u.UserName,
			"tel":           u.Tel,
			"email":         u.Email,
			"address":       u.Address,
			"is_locked":     u.IsLocked,
			"flag_admin":    u.FlagAdmin,
			"login_counter": u.LoginCounter,
			"create_time":   u.CreateTime,
		}
	},
}

type UsersPostgresRepo struct {
	db    *pgxpool.Pool
	users pgrepo.Repo[models.User]
}

func New(ctx context.Context, cfg config.PostgresDB) (UsersPostgresRepo, error) {
	db, err := pgtools.Connect(ctx, pgtools.ConnString(cfg))
	if err != nil {
		return UsersPostgresRepo{}, fmt.Errorf("connect to db error: %w", err)
	}

	if err := pgtools.ApplyMigration(cfg); err != nil {
		return UsersPostgresRepo{}, fmt.Errorf("apply migration error: %w", err)
	}

	return UsersPostgresRepo{
		db:    db,
		users: pgrepo.New(db, userSpec),
	}, nil
}

func (ur UsersPostgresRepo) GetByID(ctx context.Context, id int) (models.User, bool, error) {
	u, ok, err := ur.users.GetFirstOrDefault(ctx, squirrel.Eq{"id": id})
	if err != nil {
		return models.User{}, false, fmt.Errorf("get user error: %w", err)
	}

	return u, ok, nil
}

func (ur UsersPostgresRepo) GetByAccount(ctx context.Context, account string) (models.User, bool, error) {
	u, ok, err := ur.users.GetFirstOrDefault(ctx, squirrel.Eq{"account": account})
	if err != nil {
		return models.User{}, false, fmt.Errorf("get user error: %w", err)
	}

	return u, ok, nil
}

func (ur UsersPostgresRepo) GetPagedList(ctx context.Context,
	search string, pageIndex, pageSize int,
) ([]models.User, int64, error) {
	var pred squirrel.Sqlizer
	if search != "" {
		pattern := "%" + search + "%"
		pred = squirrel.Or{
			squirrel.ILike{"user_name": pattern},
			squirrel.ILike{"account": pattern},
		}
	}

	items, total, err := ur.users.GetPagedList(ctx, pred, pageIndex, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("paged list error: %w", err)
	}

	return items, total, nil
}

func (ur UsersPostgresRepo) Begin() userrepo.UnitOfWork {
	return &usersUnitOfWork{
		users: ur.users,
		uow:   pgrepo.NewUnitOfWork(ur.db),
	}
}

func (ur UsersPostgresRepo) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		ur.db.Close()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context error: %w", ctx.Err())
	case <-done:
		return nil
	}
}

type usersUnitOfWork struct {
	users pgrepo.Repo[models.User]
	uow   *pgrepo.UnitOfWork
}

func (w *usersUnitOfWork) Update(u models.User) error {
	if err := w.users.Update(w.uow, u); err != nil {
		return fmt.Errorf("stage update error: %w", err)
	}

	return nil
}

func (w *usersUnitOfWork) Delete(u models.User) error {
	if err := w.users.Delete(w.uow, u); err != nil {
		return fmt.Errorf("stage delete error: %w", err)
	}

	return nil
}

func (w *usersUnitOfWork) SaveChanges(ctx context.Context) (int64, error) {
	n, err := w.uow.SaveChanges(ctx)
	if err != nil {
		if errors.Is(err, pgrepo.ErrDuplicateKey) {
			return 0, userrepo.ErrAlreadyExists
		}

		return 0, fmt.Errorf("save changes error: %w", err)
	}

	return n, nil
}
