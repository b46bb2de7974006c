package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type UsersAPI struct {
	c *Client
}

func (u *UsersAPI) All(ctx context.Context) ([]domain.UserWithRoles, error) {
	var users []domain.UserWithRoles
	if err := u.get(ctx, "/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (u *UsersAPI) Get(ctx context.Context, userID string) (*domain.UserWithRoles, error) {
	var user domain.UserWithRoles
	if err := u.get(ctx, "/users/"+url.PathEscape(userID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UsersAPI) Roles(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	if err := u.get(ctx, "/roles", &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (u *UsersAPI) UserRoles(ctx context.Context, userID string) ([]domain.Role, error) {
	var roles []domain.Role
	if err := u.get(ctx, "/users/"+url.PathEscape(userID)+"/roles", &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (u *UsersAPI) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.UserWithRoles, error) {
	var user domain.UserWithRoles
	err := u.c.do(ctx, request{
		method: http.MethodPost,
		base:   u.c.authURL,
		path:   "/users",
		body:   req,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UsersAPI) AssignRole(ctx context.Context, userID, roleID string) error {
	return u.c.do(ctx, request{
		method: http.MethodPost,
		base:   u.c.authURL,
		path:   "/users/" + url.PathEscape(userID) + "/roles",
		body:   domain.AssignRoleRequest{RoleID: roleID},
	}, nil)
}

func (u *UsersAPI) RemoveRole(ctx context.Context, userID, roleID string) error {
	return u.c.do(ctx, request{
		method: http.MethodDelete,
		base:   u.c.authURL,
		path:   "/users/" + url.PathEscape(userID) + "/roles/" + url.PathEscape(roleID),
	}, nil)
}

func (u *UsersAPI) Activate(ctx context.Context, userID string) error {
	return u.setActive(ctx, userID, "activate")
}

func (u *UsersAPI) Deactivate(ctx context.Context, userID string) error {
	return u.setActive(ctx, userID, "deactivate")
}

func (u *UsersAPI) setActive(ctx context.Context, userID, action string) error {
	return u.c.do(ctx, request{
		method: http.MethodPut,
		base:   u.c.authURL,
		path:   "/users/" + url.PathEscape(userID) + "/" + action,
		body:   struct{}{},
	}, nil)
}

func (u *UsersAPI) get(ctx context.Context, path string, out any) error {
	return u.c.do(ctx, request{
		method: http.MethodGet,
		base:   u.c.authURL,
		path:   path,
	}, out)
}
