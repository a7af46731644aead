package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"trackswift/internal/models"
)

// --- AUTH ---

// Login does not tear the session down on 401: a wrong password is an
// ordinary error here.
func (c *Client) Login(ctx context.Context, in models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.callAuth(ctx, http.MethodPost, "/auth/login", nil, in, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.callAuth(ctx, http.MethodPost, "/auth/register", nil, in, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Verify(ctx context.Context) (*models.VerifyResponse, error) {
	var out models.VerifyResponse
	if err := c.call(ctx, http.MethodGet, "/auth/verify", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Invite(ctx context.Context, in models.InviteRequest) (*models.InviteResponse, error) {
	var out models.InviteResponse
	if err := c.call(ctx, http.MethodPost, "/auth/invite", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- USERS ---

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := c.call(ctx, http.MethodGet, "/auth/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	var out models.User
	if err := c.call(ctx, http.MethodPost, "/auth/users", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser leaves the password unchanged when in.Password is blank.
func (c *Client) UpdateUser(ctx context.Context, id string, in models.UserInput) (*models.User, error) {
	var out models.User
	if err := c.call(ctx, http.MethodPut, "/auth/users/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/auth/users/"+url.PathEscape(id), nil, nil, nil)
}

// --- TENANT & DASHBOARD ---

func (c *Client) TenantInfo(ctx context.Context) (*models.Tenant, error) {
	var out struct {
		Tenant models.Tenant `json:"tenant"`
	}
	if err := c.call(ctx, http.MethodGet, "/tenant/info", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Tenant, nil
}

func (c *Client) Dashboard(ctx context.Context) (*models.DashboardData, error) {
	var out models.DashboardResponse
	if err := c.call(ctx, http.MethodGet, "/dashboard", nil, nil, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, errors.New("dashboard request was not successful")
	}
	return &out.Data, nil
}

func (c *Client) Valuation(ctx context.Context) (*models.ValuationResponse, error) {
	var out models.ValuationResponse
	if err := c.call(ctx, http.MethodGet, "/reports/valuation", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	var out models.AskResponse
	if err := c.call(ctx, http.MethodPost, "/assistant", nil, models.AskRequest{Message: message}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// --- DOCUMENTS ---

func rangeQuery(start, end time.Time) map[string]string {
	return map[string]string{
		"startDate": start.Format(time.DateOnly),
		"endDate":   end.Format(time.DateOnly),
	}
}

func (c *Client) InvoicePDF(ctx context.Context, id string) ([]byte, error) {
	return c.download(ctx, "/invoices/"+url.PathEscape(id)+"/pdf", nil)
}

func (c *Client) InvoicesReportPDF(ctx context.Context, start, end time.Time) ([]byte, error) {
	return c.download(ctx, "/reports/invoices/pdf", rangeQuery(start, end))
}

func (c *Client) SalesReportPDF(ctx context.Context, start, end time.Time) ([]byte, error) {
	return c.download(ctx, "/reports/sales/pdf", rangeQuery(start, end))
}

func (c *Client) SalesReportXLSX(ctx context.Context, start, end time.Time) ([]byte, error) {
	return c.download(ctx, "/reports/sales/xlsx", rangeQuery(start, end))
}
