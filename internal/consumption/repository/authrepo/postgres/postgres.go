// Package postgres holds the two authorization-resolution queries. They are
// the only joins in the system; ad-hoc query access is deliberately not
// exposed anywhere else.
package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/henjigg/consumption/internal/consumption/domain/models"
	"github.com/henjigg/consumption/internal/pkg/config"
	"github.com/henjigg/consumption/internal/pkg/pgtools"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthPostgresRepo struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, cfg config.PostgresDB) (AuthPostgresRepo, error) {
	db, err := pgtools.Connect(ctx, pgtools.ConnString(cfg))
	if err != nil {
		return AuthPostgresRepo{}, fmt.Errorf("connect to db error: %w", err)
	}

	return AuthPostgresRepo{
		db: db,
	}, nil
}

// MenuCatalog returns every menu as an access entry carrying the menu's own
// default auth level. This is the global-administrator resolution path.
func (ar AuthPostgresRepo) MenuCatalog(ctx context.Context) ([]models.MenuAccess, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("menu_code", "menu_name", "menu_caption", "menu_namespace", "menu_auth AS auth").
		From("menus").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := ar.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	menus, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.MenuAccess])
	if err != nil {
		return nil, fmt.Errorf("collect rows error: %w", err)
	}

	return menus, nil
}

// MenusForAccount joins grants, memberships, groups and menus for one
// account. A user in several groups may produce several rows per menu;
// conflict resolution is the resolver's concern, not the query's.
func (ar AuthPostgresRepo) MenusForAccount(ctx context.Context, account string) ([]models.MenuAccess, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("m.menu_code", "m.menu_name", "m.menu_caption", "m.menu_namespace", "gg.auth").
		From("group_grants gg").
		Join("group_members gm ON gm.group_code = gg.group_code").
		Join("user_groups ug ON ug.group_code = gg.group_code").
		Join("menus m ON m.menu_code = gg.menu_code").
		Where(squirrel.Eq{"gm.account": account}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := ar.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	menus, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.MenuAccess])
	if err != nil {
		return nil, fmt.Errorf("collect rows error: %w", err)
	}

	return menus, nil
}

func (ar AuthPostgresRepo) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		ar.db.Close()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context error: %w", ctx.Err())
	case <-done:
		return nil
	}
}
