package domain

import "slices"

const (
	RoleAdmin    = "Admin"
	RoleManager  = "Manager"
	RoleCustomer = "Customer"
)

type User struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Roles, role)
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Token    string   `json:"token"`
	Message  string   `json:"message,omitempty"`
	Roles    []string `json:"roles"`
}

func (r *AuthResponse) User() *User {
	roles := r.Roles
	if roles == nil {
		roles = []string{}
	}
	return &User{
		UserID:   r.UserID,
		Username: r.Username,
		Email:    r.Email,
		Roles:    roles,
	}
}
