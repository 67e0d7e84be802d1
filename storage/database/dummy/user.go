package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers []user.User, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email && !isExcluded(*usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.table {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = uuid.New().String()
	usr.Roles = append([]string(nil), usr.Roles...)
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()
	if filter != nil {
		filtered := make([]user.User, 0, len(users))
		for _, u := range users {
			if matches(u, filter) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if len(ordering) > 0 {
		sortUsers(users, ordering)
	}
	return users, nil
}

func matches(u user.User, filter *user.QueryFilter) bool {
	// users with one of the IDs; none if IDs is empty but not nil
	if filter.IDs != nil && !contains(filter.IDs, u.ID) {
		return false
	}
	// users with FullName or Email matching the search keyword
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(u.FullName), s) && !strings.Contains(strings.ToLower(u.Email), s) {
			return false
		}
	}
	// users with any of the roles
	if len(filter.Roles) > 0 {
		var found bool
		for _, r := range filter.Roles {
			if u.HasRole(r) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.IsActive != nil && u.Active() != *filter.IsActive {
		return false
	}
	if !filter.CreatedFrom.IsZero() && u.CreatedAt.Before(filter.CreatedFrom.UTC()) {
		return false
	}
	if !filter.CreatedTo.IsZero() && u.CreatedAt.After(filter.CreatedTo.UTC()) {
		return false
	}
	return true
}

func sortUsers(users []user.User, ordering []core.DBOrdering) {
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "full_name":
				cmp = strings.Compare(users[i].FullName, users[j].FullName)
			case "email":
				cmp = strings.Compare(users[i].Email, users[j].Email)
			case "created_at":
				cmp = users[i].CreatedAt.Compare(users[j].CreatedAt)
			case "last_login":
				cmp = users[i].LastLogin.Compare(users[j].LastLogin)
			}
			if cmp != 0 {
				return (cmp < 0) == ord.Ascending
			}
		}
		return false
	})
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.db.table {
			if usr.Email == filter.Email {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range repo.db.table {
		if u.ID != usr.ID && u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.Roles = append([]string(nil), usr.Roles...)
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, u := range excludedUsers {
		if u.ID == usr.ID {
			return true
		}
	}
	return false
}
