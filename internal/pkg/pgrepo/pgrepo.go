// Package pgrepo is a generic postgres repository with a staged unit of work.
// One Repo per entity table; predicates are caller-supplied squirrel
// expressions so the repository stays free of per-entity query knowledge.
package pgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/henjigg/consumption/internal/pkg/pgtools"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicateKey = errors.New("duplicate key")

const DefaultPageSize = 20

// Spec describes how an entity maps onto its table. Key must return the
// integer primary key; Row must return column->value for every column
// except the key.
type Spec[T any] struct {
	Table   string
	KeyCol  string
	Columns []string
	Key     func(T) int
	Row     func(T) map[string]interface{}
}

type Repo[T any] struct {
	db   *pgxpool.Pool
	spec Spec[T]
}

func New[T any](db *pgxpool.Pool, spec Spec[T]) Repo[T] {
	return Repo[T]{
		db:   db,
		spec: spec,
	}
}

// GetFirstOrDefault returns the first row matching pred. Zero matches is not
// an error: the bool reports whether an entity was found.
func (r Repo[T]) GetFirstOrDefault(ctx context.Context, pred squirrel.Sqlizer) (T, bool, error) {
	var zero T

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	sb := psql.Select(r.spec.Columns...).From(r.spec.Table).Limit(1)
	if pred != nil {
		sb = sb.Where(pred)
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return zero, false, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return zero, false, fmt.Errorf("query error: %w", err)
	}

	e, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, false, nil
		}

		return zero, false, fmt.Errorf("collect row error: %w", err)
	}

	return e, true, nil
}

// GetPagedList returns at most pageSize rows matching pred, skipping
// pageIndex*pageSize prior matches, together with the full match count.
// pageIndex is 0-based; pageIndex < 0 is clamped to 0 and pageSize <= 0 to
// DefaultPageSize. Count and page are read in one transaction so the total
// is consistent with the items.
func (r Repo[T]) GetPagedList(ctx context.Context, //nolint:nonamedreturns
	pred squirrel.Sqlizer, pageIndex, pageSize int,
) (items []T, total int64, err error) {
	if pageIndex < 0 {
		pageIndex = 0
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "paged list")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	cb := psql.Select("COUNT(*)").From(r.spec.Table)
	if pred != nil {
		cb = cb.Where(pred)
	}

	query, args, err := cb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count error: %w", err)
	}

	sb := psql.Select(r.spec.Columns...).From(r.spec.Table).
		OrderBy(r.spec.KeyCol + " ASC").
		Offset(uint64(pageIndex * pageSize)).
		Limit(uint64(pageSize))
	if pred != nil {
		sb = sb.Where(pred)
	}

	query, args, err = sb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query error: %w", err)
	}

	items, err = pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, 0, fmt.Errorf("collect rows error: %w", err)
	}

	return items, total, nil
}

// Update stages an insert when the entity's key is zero, otherwise an update
// of every non-key column keyed by the primary key. Nothing hits the store
// until SaveChanges.
func (r Repo[T]) Update(uow *UnitOfWork, e T) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	row := r.spec.Row(e)

	var (
		query string
		args  []interface{}
		err   error
	)

	if r.spec.Key(e) == 0 {
		cols := make([]string, 0, len(r.spec.Columns))
		vals := make([]interface{}, 0, len(r.spec.Columns))

		for _, c := range r.spec.Columns {
			if c == r.spec.KeyCol {
				continue
			}

			cols = append(cols, c)
			vals = append(vals, row[c])
		}

		query, args, err = psql.Insert(r.spec.Table).Columns(cols...).Values(vals...).ToSql()
	} else {
		query, args, err = psql.Update(r.spec.Table).SetMap(row).
			Where(squirrel.Eq{r.spec.KeyCol: r.spec.Key(e)}).ToSql()
	}

	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	uow.stage(query, args)

	return nil
}

// Delete stages a removal keyed by the primary key.
func (r Repo[T]) Delete(uow *UnitOfWork, e T) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Delete(r.spec.Table).
		Where(squirrel.Eq{r.spec.KeyCol: r.spec.Key(e)}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	uow.stage(query, args)

	return nil
}

type statement struct {
	query string
	args  []interface{}
}

// UnitOfWork collects staged statements and commits them in one transaction.
// It is not safe for concurrent use; create one per request.
type UnitOfWork struct {
	db     *pgxpool.Pool
	staged []statement
}

func NewUnitOfWork(db *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{
		db:     db,
		staged: nil,
	}
}

func (uow *UnitOfWork) stage(query string, args []interface{}) {
	uow.staged = append(uow.staged, statement{query: query, args: args})
}

// SaveChanges applies every staged statement atomically and returns the total
// number of affected rows. A statement that matches nothing contributes 0;
// staged state is kept on failure so the caller may retry.
func (uow *UnitOfWork) SaveChanges(ctx context.Context) (affected int64, err error) { //nolint:nonamedreturns
	if len(uow.staged) == 0 {
		return 0, nil
	}

	tx, err := uow.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "save changes")
	}()

	for _, st := range uow.staged {
		ct, errE := tx.Exec(ctx, st.query, st.args...)
		if errE != nil {
			target := new(pgconn.PgError)
			if errors.As(errE, &target) && target.Code == "23505" {
				err = ErrDuplicateKey

				return 0, err
			}

			err = fmt.Errorf("exec error: %w", errE)

			return 0, err
		}

		affected += ct.RowsAffected()
	}

	uow.staged = uow.staged[:0]

	return affected, nil
}
