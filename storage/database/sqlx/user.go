package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/user"
)

const userColumns = `id, full_name, email, avatar_url, roles, is_active, password_hash, created_at, updated_at, last_login`

var userOrderings = func() map[string]bool {
	allowed := make(map[string]bool, len(user.OrderingFields))
	for _, f := range user.OrderingFields {
		allowed[f] = true
	}
	return allowed
}()

type userRow struct {
	ID           string         `db:"id"`
	FullName     string         `db:"full_name"`
	Email        string         `db:"email"`
	AvatarURL    null.String    `db:"avatar_url"`
	Roles        pq.StringArray `db:"roles"`
	IsActive     bool           `db:"is_active"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func newUserRow(usr user.User) userRow {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	return userRow{
		ID:           usr.ID,
		FullName:     usr.FullName,
		Email:        usr.Email,
		AvatarURL:    nullString(usr.AvatarURL),
		Roles:        roles,
		IsActive:     usr.Active(),
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (r userRow) model() user.User {
	usr := user.User{
		ID:           r.ID,
		FullName:     r.FullName,
		Email:        r.Email,
		AvatarURL:    r.AvatarURL.String,
		Roles:        []string(r.Roles),
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	usr.SetActive(r.IsActive)
	return usr
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{exec: exec}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	exe := core.Executor(repo.exec, exec)
	w := &where{}
	w.add("email = ?", email)
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		w.add("NOT (id = ANY(?::uuid[]))", pq.Array(ids))
	}

	var exists bool
	q := exe.Rebind("SELECT EXISTS (SELECT 1 FROM users" + w.String() + ")")
	if err := exe.GetContext(ctx, &exists, q, w.args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	row := newUserRow(usr)
	const q = `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :full_name, :email, :avatar_url, :roles, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := core.Executor(repo.exec, exec).NamedExecContext(ctx, q, row); err != nil {
		return user.User{}, trapUniqueErr(err, user.ErrEmailExists, "inserting user")
	}
	return row.model(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	exe := core.Executor(repo.exec, exec)
	w := &where{}
	if filter != nil {
		if filter.IDs != nil {
			w.add("id = ANY(?::uuid[])", pq.Array(filter.IDs))
		}
		// users with FullName or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(full_name ILIKE ? OR email ILIKE ?)", val, val)
		}
		// users with any of the roles
		if len(filter.Roles) > 0 {
			w.add("roles && ?::text[]", pq.Array(filter.Roles))
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			w.add("created_at >= ?", filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			w.add("created_at <= ?", filter.CreatedTo.UTC())
		}
	}

	q := "SELECT " + userColumns + " FROM users" + w.String() + orderBy(ordering, userOrderings, "created_at ASC, id ASC")
	var rows []userRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.model())
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	exe := core.Executor(repo.exec, exec)
	var (
		row userRow
		err error
	)
	switch {
	case filter.ID != "":
		if _, err = uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		err = exe.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE id = $1", filter.ID)
	case filter.Email != "":
		err = exe.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE email = $1", filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.model(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	row := newUserRow(usr)
	const q = `UPDATE users SET
		full_name = :full_name, email = :email, avatar_url = :avatar_url, roles = :roles, is_active = :is_active,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := core.Executor(repo.exec, exec).NamedExecContext(ctx, q, row)
	if err != nil {
		return user.User{}, trapUniqueErr(err, user.ErrEmailExists, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return row.model(), nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	res, err := core.Executor(repo.exec, exec).ExecContext(ctx, "DELETE FROM users WHERE id = ANY($1::uuid[])", pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting users")
}
