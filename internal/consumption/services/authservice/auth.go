package authservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/henjigg/consumption/internal/consumption/domain/models"
	"github.com/henjigg/consumption/internal/consumption/repository/menucache"
	"github.com/henjigg/consumption/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both an unknown account and a wrong
	// password. The two cases must stay indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid account or password")
	ErrInvalidInput       = errors.New("account and password are required")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

type Users interface {
	GetByAccount(ctx context.Context, account string) (models.User, bool, error)
}

type Menus interface {
	MenuCatalog(ctx context.Context) ([]models.MenuAccess, error)
	MenusForAccount(ctx context.Context, account string) ([]models.MenuAccess, error)
}

type Cache interface {
	GetMenus(ctx context.Context, account string) ([]models.MenuAccess, error)
	SetMenus(ctx context.Context, account string, menus []models.MenuAccess) error
}

type AuthService struct {
	users        Users
	menus        Menus
	cache        Cache
	lg           logger.Logger
	queryTimeout time.Duration
}

func New(users Users, menus Menus, cache Cache, lg logger.Logger, queryTimeout time.Duration) *AuthService {
	return &AuthService{
		users:        users,
		menus:        menus,
		cache:        cache,
		lg:           lg,
		queryTimeout: queryTimeout,
	}
}

// AuthenticateAndResolve verifies the credential and returns the user record
// together with the resolved menu set. Store failures surface as
// ErrStoreUnavailable without detail; the login counter is deliberately left
// untouched.
func (as *AuthService) AuthenticateAndResolve(ctx context.Context, account, password string) (LoginResult, error) {
	if strings.TrimSpace(account) == "" || strings.TrimSpace(password) == "" {
		return LoginResult{}, ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, as.queryTimeout)
	defer cancel()

	u, ok, err := as.users.GetByAccount(ctx, account)
	if err != nil {
		as.lg.Errorf("get user error: %s", err.Error())

		return LoginResult{}, ErrStoreUnavailable
	}

	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	menus, err := as.ResolveMenus(ctx, u.Account, u.FlagAdmin)
	if err != nil {
		as.lg.Errorf("resolve menus error: %s", err.Error())

		return LoginResult{}, ErrStoreUnavailable
	}

	u.PasswordHash = ""

	return LoginResult{User: u, Menus: menus}, nil
}

// ResolveMenus computes the menu entries visible to an account. A global
// administrator sees the whole catalog with each menu's own auth level; a
// regular user sees menus reachable through a membership-grant chain. When
// several groups grant the same menu at different levels the highest wins
// (one entry per menu, name-sorted), unlike the historical behavior of
// emitting one row per grant. An empty result is a valid success.
func (as *AuthService) ResolveMenus(ctx context.Context, account string, isGlobalAdmin bool) ([]models.MenuAccess, error) {
	if isGlobalAdmin {
		catalog, err := as.menus.MenuCatalog(ctx)
		if err != nil {
			return nil, fmt.Errorf("menu catalog error: %w", err)
		}

		return catalog, nil
	}

	if cached, err := as.cache.GetMenus(ctx, account); err == nil {
		return cached, nil
	} else if !errors.Is(err, menucache.ErrNotCached) {
		as.lg.Errorf("menu cache get error: %s", err.Error())
	}

	rows, err := as.menus.MenusForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("menus for account error: %w", err)
	}

	resolved := mergeGrants(rows)

	if err := as.cache.SetMenus(ctx, account, resolved); err != nil {
		as.lg.Errorf("menu cache set error: %s", err.Error())
	}

	return resolved, nil
}

// mergeGrants collapses grant rows to one entry per menu. Menus are keyed by
// code: names and namespaces are not unique across the catalog.
func mergeGrants(rows []models.MenuAccess) []models.MenuAccess {
	byMenu := make(map[string]models.MenuAccess, len(rows))

	for _, row := range rows {
		if prev, ok := byMenu[row.MenuCode]; !ok || row.Auth > prev.Auth {
			byMenu[row.MenuCode] = row
		}
	}

	merged := make([]models.MenuAccess, 0, len(byMenu))
	for _, m := range byMenu {
		merged = append(merged, m)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].MenuName < merged[j].MenuName })

	return merged
}
