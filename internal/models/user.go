package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// ReservedUsername is the alias of the "current user" endpoint.
const ReservedUsername = "me"

type User struct {
	ID          int64      `json:"-"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Bio         string     `json:"bio"`
	Role        Role       `json:"role"`
	IsSuperuser bool       `json:"-"`
	IsActive    bool       `json:"-"`
	LastLogin   *time.Time `json:"-"`
	DateJoined  time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`

	// ConfirmationSeq is bumped on every signup request; it is part of the
	// state the confirmation code is bound to.
	ConfirmationSeq int64 `json:"-"`
}

// UserFilter: параметры списка пользователей.
type UserFilter struct {
	Search string
	Limit  int
	Offset int
}
