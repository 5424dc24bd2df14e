package authservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/henjigg/consumption/internal/consumption/domain/models"
	"github.com/henjigg/consumption/internal/consumption/repository/memory"
	"github.com/henjigg/consumption/internal/consumption/repository/menucache"
	"github.com/henjigg/consumption/internal/consumption/services/authservice"
	"github.com/henjigg/consumption/pkg/logger"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeCache struct {
	menus map[string][]models.MenuAccess
}

func newFakeCache() *fakeCache {
	return &fakeCache{menus: make(map[string][]models.MenuAccess)}
}

func (c *fakeCache) GetMenus(_ context.Context, account string) ([]models.MenuAccess, error) {
	m, ok := c.menus[account]
	if !ok {
		return nil, menucache.ErrNotCached
	}

	return m, nil
}

func (c *fakeCache) SetMenus(_ context.Context, account string, menus []models.MenuAccess) error {
	c.menus[account] = menus

	return nil
}

type failingUsers struct{}

func (failingUsers) GetByAccount(context.Context, string) (models.User, bool, error) {
	return models.User{}, false, errors.New("connection refused")
}

func seedStore(t *testing.T) *memory.Store {
	t.Helper()

	s := memory.NewStore()

	s.AddMenu(models.Menu{MenuCode: "M01", MenuName: "orders", MenuCaption: "Orders", MenuNamespace: "Consumption.Orders", MenuAuth: 0})
	s.AddMenu(models.Menu{MenuCode: "M02", MenuName: "reports", MenuCaption: "Reports", MenuNamespace: "Consumption.Reports", MenuAuth: 1})

	s.AddGroup(models.Group{GroupCode: "G1", GroupName: "sales"})
	s.AddGroup(models.Group{GroupCode: "G2", GroupName: "support"})

	s.AddMember(models.GroupMember{Account: "alice", GroupCode: "G1"})

	s.AddGrant(models.GroupGrant{GroupCode: "G1", MenuCode: "M01", Auth: 2})

	addUser(t, s, "alice", "pw1", false)
	addUser(t, s, "root", "rootpw", true)
	addUser(t, s, "bob", "pw2", false)

	return s
}

func addUser(t *testing.T, s *memory.Store, account, password string, admin bool) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	uow := s.Begin()
	require.NoError(t, uow.Update(models.User{
		Account:      account,
		PasswordHash: string(hash),
		UserName:     account,
		FlagAdmin:    admin,
	}))

	_, err = uow.SaveChanges(context.Background())
	require.NoError(t, err)
}

func newService(s *memory.Store) *authservice.AuthService {
	return authservice.New(s, s, newFakeCache(), logger.Nop(), time.Second)
}

func TestResolveMenusAdminSeesFullCatalog(t *testing.T) {
	s := seedStore(t)
	as := newService(s)

	menus, err := as.ResolveMenus(context.Background(), "root", true)
	require.NoError(t, err)
	require.Len(t, menus, 2)

	// The admin path carries each menu's own auth level, memberships ignored.
	require.Equal(t, "orders", menus[0].MenuName)
	require.Equal(t, 0, menus[0].Auth)
	require.Equal(t, "reports", menus[1].MenuName)
	require.Equal(t, 1, menus[1].Auth)
}

func TestResolveMenusNoMemberships(t *testing.T) {
	s := seedStore(t)
	as := newService(s)

	menus, err := as.ResolveMenus(context.Background(), "bob", false)
	require.NoError(t, err)
	require.Empty(t, menus)
}

func TestResolveMenusGrantLevelCarried(t *testing.T) {
	s := seedStore(t)
	s.AddGrant(models.GroupGrant{GroupCode: "G1", MenuCode: "M02", Auth: 3})
	as := newService(s)

	menus, err := as.ResolveMenus(context.Background(), "alice", false)
	require.NoError(t, err)
	require.Len(t, menus, 2)
	require.Equal(t, "orders", menus[0].MenuName)
	require.Equal(t, 2, menus[0].Auth)
	require.Equal(t, "reports", menus[1].MenuName)
	require.Equal(t, 3, menus[1].Auth)
}

func TestResolveMenusHighestGrantWins(t *testing.T) {
	s := seedStore(t)
	s.AddMember(models.GroupMember{Account: "alice", GroupCode: "G2"})
	s.AddGrant(models.GroupGrant{GroupCode: "G2", MenuCode: "M01", Auth: 5})
	as := newService(s)

	menus, err := as.ResolveMenus(context.Background(), "alice", false)
	require.NoError(t, err)
	require.Len(t, menus, 1)
	require.Equal(t, "orders", menus[0].MenuName)
	require.Equal(t, 5, menus[0].Auth)
}

func TestResolveMenusSharedNamespace(t *testing.T) {
	s := seedStore(t)
	// Two distinct menus may share a namespace; each keeps its own entry
	// instead of one swallowing the other.
	s.AddMenu(models.Menu{MenuCode: "M03", MenuName: "refunds", MenuCaption: "Refunds", MenuNamespace: "Consumption.Orders", MenuAuth: 0})
	s.AddGrant(models.GroupGrant{GroupCode: "G1", MenuCode: "M03", Auth: 1})
	as := newService(s)

	menus, err := as.ResolveMenus(context.Background(), "alice", false)
	require.NoError(t, err)
	require.Len(t, menus, 2)
	require.Equal(t, "M01", menus[0].MenuCode)
	require.Equal(t, 2, menus[0].Auth)
	require.Equal(t, "M03", menus[1].MenuCode)
	require.Equal(t, 1, menus[1].Auth)
}

func TestResolveMenusCached(t *testing.T) {
	s := seedStore(t)
	as := newService(s)

	first, err := as.ResolveMenus(context.Background(), "alice", false)
	require.NoError(t, err)

	// A grant added after resolution is invisible until the cache entry
	// expires or is invalidated.
	s.AddGrant(models.GroupGrant{GroupCode: "G1", MenuCode: "M02", Auth: 1})

	second, err := as.ResolveMenus(context.Background(), "alice", false)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAuthenticateAndResolve(t *testing.T) {
	s := seedStore(t)
	as := newService(s)

	result, err := as.AuthenticateAndResolve(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	require.Equal(t, "alice", result.User.Account)
	require.False(t, result.User.FlagAdmin)
	require.Empty(t, result.User.PasswordHash)

	require.Len(t, result.Menus, 1)
	require.Equal(t, "orders", result.Menus[0].MenuName)
	require.Equal(t, 2, result.Menus[0].Auth)
}

func TestAuthenticateFailuresIndistinguishable(t *testing.T) {
	s := seedStore(t)
	as := newService(s)

	_, errWrongPassword := as.AuthenticateAndResolve(context.Background(), "alice", "nope")
	_, errUnknownAccount := as.AuthenticateAndResolve(context.Background(), "mallory", "nope")

	require.ErrorIs(t, errWrongPassword, authservice.ErrInvalidCredentials)
	require.ErrorIs(t, errUnknownAccount, authservice.ErrInvalidCredentials)
	require.Equal(t, errWrongPassword.Error(), errUnknownAccount.Error())
}

func TestAuthenticateBlankInput(t *testing.T) {
	s := seedStore(t)
	as := newService(s)

	for _, tc := range []struct{ account, password string }{
		{"", "pw1"},
		{"alice", ""},
		{"   ", "pw1"},
		{"alice", "\t"},
	} {
		_, err := as.AuthenticateAndResolve(context.Background(), tc.account, tc.password)
		require.ErrorIs(t, err, authservice.ErrInvalidInput)
	}
}

func TestAuthenticateStoreFailure(t *testing.T) {
	s := seedStore(t)
	as := authservice.New(failingUsers{}, s, newFakeCache(), logger.Nop(), time.Second)

	_, err := as.AuthenticateAndResolve(context.Background(), "alice", "pw1")
	require.ErrorIs(t, err, authservice.ErrStoreUnavailable)
	require.NotErrorIs(t, err, authservice.ErrInvalidCredentials)
}
