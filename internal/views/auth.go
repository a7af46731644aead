package views

import (
	"context"
	"errors"
	"strings"

	"trackswift/internal/apiclient"
	"trackswift/internal/models"
)

// Login signs in and stores the session. Failures move the session into
// its error state with the message shown to the user.
func Login(ctx context.Context, env *Env, f LoginForm) (*models.User, error) {
	f.CompanyName = strings.TrimSpace(f.CompanyName)
	if err := check(f, loginMessages).orNil(); err != nil {
		return nil, err
	}
	resp, err := env.API.Login(ctx, models.LoginRequest{Email: f.Email, Password: f.Password, CompanyName: f.CompanyName})
	if err != nil {
		env.Session.Fail(errors.New(authMessage(err, "Login failed")))
		return nil, err
	}
	if err := env.Session.Login(ctx, resp.Token, resp.User); err != nil {
		return nil, err
	}
	env.Cache.Invalidate(allKeys()...)
	return &resp.User, nil
}

// Register creates the company and its first admin, then signs in.
func Register(ctx context.Context, env *Env, f RegisterForm) (*models.User, error) {
	f.CompanyName = strings.TrimSpace(f.CompanyName)
	fe := check(f, registerMessages)
	if f.Password != f.ConfirmPassword {
		fe.add("ConfirmPassword", "Passwords do not match")
	}
	if err := fe.orNil(); err != nil {
		return nil, err
	}
	resp, err := env.API.Register(ctx, models.RegisterRequest{
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Email:       f.Email,
		Password:    f.Password,
		CompanyName: f.CompanyName,
	})
	if err != nil {
		env.Session.Fail(errors.New(authMessage(err, "Registration failed")))
		return nil, err
	}
	if err := env.Session.Login(ctx, resp.Token, resp.User); err != nil {
		return nil, err
	}
	env.Cache.Invalidate(allKeys()...)
	return &resp.User, nil
}

// Logout clears the session and every cached collection.
func Logout(ctx context.Context, env *Env) error {
	env.Cache.Invalidate(allKeys()...)
	return env.Session.Logout(ctx)
}

// Verify asks the server whether the stored token is still good. A 401
// has already signed the session out by the time it returns.
func Verify(ctx context.Context, env *Env) (*models.User, error) {
	resp, err := env.API.Verify(ctx)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func authMessage(err error, fallback string) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
