package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/henjigg/consumption/internal/consumption/domain/models"
	"github.com/henjigg/consumption/internal/consumption/repository/menucache"
	"github.com/henjigg/consumption/internal/pkg/config"
	"github.com/henjigg/consumption/internal/pkg/redistools"
	"github.com/redis/go-redis/v9"
)

// MenuCache keeps resolved per-account menu lists. Entries are TTL-bound;
// group and grant tables are not mutable through this service, so expiry
// bounds any drift introduced outside it.
type MenuCache struct {
	rdb     *redis.Client
	expTime time.Duration
}

func New(ctx context.Context, cfg config.MenuCache) (MenuCache, error) {
	rdb := redis.NewClient(&redis.Options{ //nolint:exhaustruct
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := redistools.Connect(ctx, rdb, cfg.DialWait); err != nil {
		return MenuCache{}, fmt.Errorf("connect error: %w", err)
	}

	return MenuCache{
		rdb:     rdb,
		expTime: cfg.ExpTime,
	}, nil
}

func (mc MenuCache) GetMenus(ctx context.Context, account string) ([]models.MenuAccess, error) {
	menusJSON, err := mc.rdb.Get(ctx, "menus:"+account).Result()
	if errors.Is(err, redis.Nil) {
		return nil, menucache.ErrNotCached
	} else if err != nil {
		return nil, fmt.Errorf("get error: %w", err)
	}

	var menus []models.MenuAccess

	if err := json.Unmarshal([]byte(menusJSON), &menus); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	return menus, nil
}

func (mc MenuCache) SetMenus(ctx context.Context, account string, menus []models.MenuAccess) error {
	menusJSON, err := json.Marshal(menus)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if _, err := mc.rdb.Set(ctx, "menus:"+account, menusJSON, mc.expTime).Result(); err != nil {
		return fmt.Errorf("set error: %w", err)
	}

	return nil
}

func (mc MenuCache) Invalidate(ctx context.Context, account string) error {
	if _, err := mc.rdb.Del(ctx, "menus:"+account).Result(); err != nil {
		return fmt.Errorf("del error: %w", err)
	}

	return nil
}
