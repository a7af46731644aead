// Package apiclient talks to the TrackSwift REST API. Every call carries the
// session's bearer token; a 401 from any endpoint tears the session down.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"trackswift/internal/models"
)

// ErrUnauthorized is returned after a 401 has cleared the session. Callers
// should not report it as a failure; the user simply has to sign in again.
var ErrUnauthorized = errors.New("session expired, please log in again")

// APIError is an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s: %s", msg, strings.Join(e.Errors, "; "))
	}
	return msg
}

// Messages returns what the server asked to show: each field error when
// present, otherwise its message. It is empty when the body said nothing.
func (e *APIError) Messages() []string {
	if len(e.Errors) > 0 {
		return e.Errors
	}
	if e.Message != "" {
		return []string{e.Message}
	}
	return nil
}

// Authenticator supplies the bearer token and is told when the server
// rejects it.
type Authenticator interface {
	Token() string
	Unauthorized()
}

type errorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// Client is the remote data client. read retries once on network errors
// and 5xx; write never retries.
type Client struct {
	read  *resty.Client
	write *resty.Client
	auth  Authenticator
	log   zerolog.Logger

	Vendors   *Resource[models.Vendor]
	Invoices  *Resource[models.Invoice]
	Inventory *Resource[models.InventoryItem]
	Sales     *Resource[models.Sale]
	Expenses  *Resource[models.Expense]
}

// New builds a client for baseURL, e.g. http://localhost:5000/api.
func New(baseURL string, timeout time.Duration, auth Authenticator, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimRight(baseURL, "/")

	read := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && r.StatusCode() >= http.StatusInternalServerError
		})
	write := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout)

	c := &Client{read: read, write: write, auth: auth, log: log}
	c.Vendors = &Resource[models.Vendor]{c: c, path: "/vendors", key: "vendors"}
	c.Invoices = &Resource[models.Invoice]{c: c, path: "/invoices", key: "invoices"}
	c.Inventory = &Resource[models.InventoryItem]{c: c, path: "/inventory", key: "items"}
	c.Sales = &Resource[models.Sale]{c: c, path: "/sales", key: "sales"}
	c.Expenses = &Resource[models.Expense]{c: c, path: "/expenses", key: "expenses"}
	return c
}

// request starts a request on the client matching method.
func (c *Client) request(ctx context.Context, method string) *resty.Request {
	hc := c.write
	if method == http.MethodGet {
		hc = c.read
	}
	req := hc.R().SetContext(ctx)
	if c.auth != nil {
		if token := c.auth.Token(); token != "" {
			req.SetAuthToken(token)
		}
	}
	return req
}

// send executes req. With teardown set, a 401 clears the session and
// yields ErrUnauthorized; login and registration turn it off so a bad
// password surfaces as an ordinary error.
func (c *Client) send(req *resty.Request, method, path string, teardown bool) (*resty.Response, error) {
	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("api call")

	if resp.StatusCode() == http.StatusUnauthorized && teardown {
		if c.auth != nil {
			c.auth.Unauthorized()
		}
		return nil, ErrUnauthorized
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return resp, nil
}

func decodeError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Message = body.Message
		apiErr.Errors = body.Errors
	}
	return apiErr
}

// call executes a JSON round trip: body (may be nil) out, result (may be
// nil) in.
func (c *Client) call(ctx context.Context, method, path string, query map[string]string, body, result interface{}) error {
	return c.callAuth(ctx, method, path, query, body, result, true)
}

func (c *Client) callAuth(ctx context.Context, method, path string, query map[string]string, body, result interface{}, teardown bool) error {
	req := c.request(ctx, method)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := c.send(req, method, path, teardown)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// download fetches a binary document.
func (c *Client) download(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	req := c.request(ctx, http.MethodGet)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := c.send(req, http.MethodGet, path, true)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}
