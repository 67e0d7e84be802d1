package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/upskillhub/upskill/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleMentor  = "mentor"
	RoleStudent = "student"
	RoleSchool  = "school"
)

var (
	AllRoles = []string{RoleAdmin, RoleMentor, RoleSchool, RoleStudent}
	// SignUpRoles are the roles anyone can pick when creating their own account.
	SignUpRoles = []string{RoleMentor, RoleSchool, RoleStudent}
	// OrderingFields are the columns users can be sorted by. Sorted.
	OrderingFields = []string{"created_at", "email", "full_name", "last_login", "updated_at"}

	rolePriorities = map[string]int{
		RoleAdmin:   30,
		RoleSchool:  20,
		RoleMentor:  11,
		RoleStudent: 1,
	}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Mentor", Value: RoleMentor},
		{Name: "School", Value: RoleSchool},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	AvatarURL    string    `json:"avatar_url"`
	Roles        []string  `json:"roles"`
	IsActive     *bool     `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u User) IsAdmin() bool   { return u.HasRole(RoleAdmin) }
func (u User) IsMentor() bool  { return u.HasRole(RoleMentor) }
func (u User) IsStudent() bool { return u.HasRole(RoleStudent) }
func (u User) IsSchool() bool  { return u.HasRole(RoleSchool) }

// DisplayName returns the full name, falling back to the local part of the email, then to `fallback`.
func (u User) DisplayName(fallback string) string {
	if name := core.CleanString(u.FullName); name != "" {
		return name
	}
	if i := strings.Index(u.Email, "@"); i > 0 {
		return u.Email[:i]
	}
	return fallback
}

// Profile is the public view of a User.
type Profile struct {
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func (u User) Profile() Profile {
	return Profile{
		UserID:    u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	FullName        string   `json:"full_name" validate:"required,max=200"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"required,min=1,allroles"`
}

func (nu *NewUser) Clean() {
	nu.FullName = core.CleanString(nu.FullName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Roles = core.CleanStrings(nu.Roles, true /* lower */)
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}

// SignUp contains what anyone may provide to create their own account.
type SignUp struct {
	FullName        string `json:"full_name" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,signuprole"`
}

func (su *SignUp) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	su.FullName = core.CleanString(su.FullName)
	su.Email = core.CleanString(su.Email, true /* lower */)
	su.Role = core.CleanString(su.Role, true /* lower */)
	if err := validate.Struct(su); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, su.Email)
}

func (su SignUp) NewUser() NewUser {
	return NewUser{
		FullName:        su.FullName,
		Email:           su.Email,
		Password:        su.Password,
		PasswordConfirm: su.PasswordConfirm,
		Roles:           []string{su.Role},
	}
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	FullName        string   `json:"full_name" validate:"omitempty,max=200"`
	Email           string   `json:"email" validate:"omitempty,email"`
	AvatarURL       *string  `json:"avatar_url" validate:"omitempty,url"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(uu.FullName); name != "" {
		uu.FullName = name
	} else {
		uu.FullName = origUsr.FullName
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	if uu.Roles != nil {
		uu.Roles = core.CleanStrings(uu.Roles, true /* lower */)
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	IDs         []string  `query:"-"`
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.IDs == nil && qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single User by ID or by Email.
type GetFilter struct {
	ID    string
	Email string
}
