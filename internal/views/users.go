package views

import (
	"context"
	"errors"

	"trackswift/internal/events"
	"trackswift/internal/models"
	"trackswift/internal/query"
)

const adminOnly = "You need admin privileges to access this page."

// ErrForbidden is returned by the user screens for non-admins.
var ErrForbidden = errors.New("admin privileges required")

// Users is the admin-only user administration screen.
type Users struct {
	env *Env
}

func NewUsers(env *Env) *Users {
	return &Users{env: env}
}

func (u *Users) requireAdmin() error {
	if !u.env.Session.IsAdmin() {
		u.env.Notify.Error(adminOnly)
		return ErrForbidden
	}
	return nil
}

func (u *Users) List(ctx context.Context) ([]models.User, error) {
	if err := u.requireAdmin(); err != nil {
		return nil, err
	}
	users, err := query.Fetch(ctx, u.env.Cache, events.Users, "", u.env.API.Users)
	if err != nil {
		u.env.Fail(err, "Failed to load users")
		return nil, err
	}
	return users, nil
}

func (u *Users) Create(ctx context.Context, f UserForm) (*models.User, error) {
	if err := u.requireAdmin(); err != nil {
		return nil, err
	}
	in, err := f.input(true)
	if err != nil {
		return nil, err
	}
	user, err := u.env.API.CreateUser(ctx, in)
	if err != nil {
		u.env.Fail(err, "Failed to create user")
		return nil, err
	}
	u.done("User created successfully")
	return user, nil
}

// Update sends the password only when one was typed.
func (u *Users) Update(ctx context.Context, id string, f UserForm) (*models.User, error) {
	if err := u.requireAdmin(); err != nil {
		return nil, err
	}
	in, err := f.input(false)
	if err != nil {
		return nil, err
	}
	user, err := u.env.API.UpdateUser(ctx, id, in)
	if err != nil {
		u.env.Fail(err, "Failed to update user")
		return nil, err
	}
	u.done("User updated successfully")
	return user, nil
}

// Delete refuses admin accounts before asking for confirmation.
func (u *Users) Delete(ctx context.Context, target models.User) error {
	if err := u.requireAdmin(); err != nil {
		return err
	}
	if target.Role == models.RoleAdmin {
		u.env.Notify.Error("Admin users cannot be deleted")
		return ErrForbidden
	}
	if !u.env.Confirm.Confirm("Are you sure you want to delete this user?") {
		return ErrCancelled
	}
	if err := u.env.API.DeleteUser(ctx, target.ID); err != nil {
		u.env.Fail(err, "Failed to delete user")
		return err
	}
	u.done("User deleted successfully")
	return nil
}

// Invite creates an active account and returns its one-time password.
func (u *Users) Invite(ctx context.Context, in models.InviteRequest) (*models.InviteResponse, error) {
	if err := u.requireAdmin(); err != nil {
		return nil, err
	}
	fe := check(struct {
		Username string `validate:"required"`
		Email    string `validate:"required,email"`
		Role     string `validate:"omitempty,oneof=admin user"`
	}{in.Username, in.Email, in.Role}, userMessages)
	if err := fe.orNil(); err != nil {
		return nil, err
	}
	resp, err := u.env.API.Invite(ctx, in)
	if err != nil {
		u.env.Fail(err, "Failed to invite user")
		return nil, err
	}
	u.done("User invited successfully")
	return resp, nil
}

func (u *Users) done(msg string) {
	u.env.Bus.Mutated(events.Users)
	u.env.Notify.Success(msg)
}
