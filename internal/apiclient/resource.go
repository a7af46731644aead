package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trackswift/internal/models"
)

// ListParams are the query parameters every list endpoint understands.
// Zero values are left out of the query string.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	Vendor    string
	Status    string
	LowStock  bool
	StartDate *time.Time
	EndDate   *time.Time
}

// Query renders the parameters as a query string map.
func (p ListParams) Query() map[string]string {
	q := map[string]string{}
	if p.Page > 0 {
		q["page"] = strconv.Itoa(p.Page)
	}
	if p.Limit > 0 {
		q["limit"] = strconv.Itoa(p.Limit)
	}
	if p.Search != "" {
		q["search"] = p.Search
	}
	if p.Category != "" {
		q["category"] = p.Category
	}
	if p.Vendor != "" {
		q["vendor"] = p.Vendor
	}
	if p.Status != "" {
		q["status"] = p.Status
	}
	if p.LowStock {
		q["lowStock"] = "true"
	}
	if p.StartDate != nil {
		q["startDate"] = p.StartDate.UTC().Format(time.RFC3339Nano)
	}
	if p.EndDate != nil {
		q["endDate"] = p.EndDate.UTC().Format(time.RFC3339Nano)
	}
	return q
}

// Key identifies the parameters in a cache.
func (p ListParams) Key() string {
	b, _ := json.Marshal(p.Query())
	return string(b)
}

// Page is one page of a collection.
type Page[T any] struct {
	Items      []T
	Pagination models.Pagination
}

// Resource is one CRUD collection of the API.
type Resource[T any] struct {
	c    *Client
	path string
	key  string
}

// Name is the collection key, e.g. "vendors".
func (r *Resource[T]) Name() string { return r.key }

func (r *Resource[T]) List(ctx context.Context, p ListParams) (*Page[T], error) {
	var raw map[string]json.RawMessage
	if err := r.c.call(ctx, http.MethodGet, r.path, p.Query(), nil, &raw); err != nil {
		return nil, err
	}
	page := &Page[T]{Items: []T{}}
	if items, ok := raw[r.key]; ok && string(items) != "null" {
		if err := json.Unmarshal(items, &page.Items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.key, err)
		}
	}
	if pg, ok := raw["pagination"]; ok {
		if err := json.Unmarshal(pg, &page.Pagination); err != nil {
			return nil, fmt.Errorf("decode pagination: %w", err)
		}
	}
	return page, nil
}

func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := r.c.call(ctx, http.MethodGet, r.path+"/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Create(ctx context.Context, in interface{}) (*T, error) {
	var out T
	if err := r.c.call(ctx, http.MethodPost, r.path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Update(ctx context.Context, id string, in interface{}) (*T, error) {
	var out T
	if err := r.c.call(ctx, http.MethodPut, r.path+"/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.c.call(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil, nil)
}
