// Package memory is an in-memory implementation of the user and
// authorization repository surfaces. It backs the unit tests; semantics
// mirror the postgres implementation, including atomic SaveChanges.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/henjigg/consumption/internal/consumption/domain/models"
	"github.com/henjigg/consumption/internal/consumption/repository/userrepo"
)

const defaultPageSize = 20

type Store struct {
	mu sync.RWMutex

	users   map[int]models.User
	nextID  int
	menus   []models.Menu
	groups  []models.Group
	members []models.GroupMember
	grants  []models.GroupGrant
}

func NewStore() *Store {
	return &Store{
		users:  make(map[int]models.User),
		nextID: 1,
	}
}

func (s *Store) AddMenu(m models.Menu) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.menus = append(s.menus, m)
}

func (s *Store) AddGroup(g models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups = append(s.groups, g)
}

func (s *Store) AddMember(m models.GroupMember) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members = append(s.members, m)
}

func (s *Store) AddGrant(g models.GroupGrant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grants = append(s.grants, g)
}

func (s *Store) GetByID(_ context.Context, id int) (models.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]

	return u, ok, nil
}

func (s *Store) GetByAccount(_ context.Context, account string) (models.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Account == account {
			return u, true, nil
		}
	}

	return models.User{}, false, nil
}

func (s *Store) GetPagedList(_ context.Context,
	search string, pageIndex, pageSize int,
) ([]models.User, int64, error) {
	if pageIndex < 0 {
		pageIndex = 0
	}

	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.User, 0, len(s.users))

	needle := strings.ToLower(search)
	for _, u := range s.users {
		if needle == "" ||
			strings.Contains(strings.ToLower(u.UserName), needle) ||
			strings.Contains(strings.ToLower(u.Account), needle) {
			matched = append(matched, u)
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))

	from := pageIndex * pageSize
	if from >= len(matched) {
		return []models.User{}, total, nil
	}

	to := from + pageSize
	if to > len(matched) {
		to = len(matched)
	}

	return matched[from:to], total, nil
}

func (s *Store) MenuCatalog(_ context.Context) ([]models.MenuAccess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MenuAccess, 0, len(s.menus))
	for _, m := range s.menus {
		out = append(out, models.MenuAccess{
			MenuCode:      m.MenuCode,
			MenuName:      m.MenuName,
			MenuCaption:   m.MenuCaption,
			MenuNamespace: m.MenuNamespace,
			Auth:          m.MenuAuth,
		})
	}

	return out, nil
}

func (s *Store) MenusForAccount(_ context.Context, account string) ([]models.MenuAccess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MenuAccess, 0)

	for _, gm := range s.members {
		if gm.Account != account {
			continue
		}

		if !s.groupExists(gm.GroupCode) {
			continue
		}

		for _, gg := range s.grants {
			if gg.GroupCode != gm.GroupCode {
				continue
			}

			for _, m := range s.menus {
				if m.MenuCode != gg.MenuCode {
					continue
				}

				out = append(out, models.MenuAccess{
					MenuCode:      m.MenuCode,
					MenuName:      m.MenuName,
					MenuCaption:   m.MenuCaption,
					MenuNamespace: m.MenuNamespace,
					Auth:          gg.Auth,
				})
			}
		}
	}

	return out, nil
}

func (s *Store) groupExists(code string) bool {
	for _, g := range s.groups {
		if g.GroupCode == code {
			return true
		}
	}

	return false
}

func (s *Store) Begin() userrepo.UnitOfWork {
	return &unitOfWork{store: s}
}

type stagedOp struct {
	user   models.User
	remove bool
}

type unitOfWork struct {
	store  *Store
	staged []stagedOp
}

func (w *unitOfWork) Update(u models.User) error {
	w.staged = append(w.staged, stagedOp{user: u, remove: false})

	return nil
}

func (w *unitOfWork) Delete(u models.User) error {
	w.staged = append(w.staged, stagedOp{user: u, remove: true})

	return nil
}

// SaveChanges applies staged operations against a copy of the user set and
// swaps it in only when every operation succeeded, so a failure leaves the
// store untouched.
func (w *unitOfWork) SaveChanges(_ context.Context) (int64, error) {
	if len(w.staged) == 0 {
		return 0, nil
	}

	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	next := make(map[int]models.User, len(w.store.users))
	for id, u := range w.store.users {
		next[id] = u
	}

	nextID := w.store.nextID

	var affected int64

	for _, op := range w.staged {
		switch {
		case op.remove:
			if _, ok := next[op.user.ID]; ok {
				delete(next, op.user.ID)

				affected++
			}
		case op.user.ID == 0:
			if accountTaken(next, op.user.Account, 0) {
				return 0, userrepo.ErrAlreadyExists
			}

			u := op.user
			u.ID = nextID
			nextID++
			next[u.ID] = u

			affected++
		default:
			if _, ok := next[op.user.ID]; ok {
				if accountTaken(next, op.user.Account, op.user.ID) {
					return 0, userrepo.ErrAlreadyExists
				}

				next[op.user.ID] = op.user

				affected++
			}
		}
	}

	w.store.users = next
	w.store.nextID = nextID
	w.staged = w.staged[:0]

	return affected, nil
}

func accountTaken(users map[int]models.User, account string, selfID int) bool {
	for _, u := range users {
		if u.Account == account && u.ID != selfID {
			return true
		}
	}

	return false
}
