package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Pagination is the page block of list responses.
type Pagination struct {
	Total   int `json:"total"`
	Pages   int `json:"pages"`
	Current int `json:"current"`
}

// HasMore reports whether a page after Current exists.
func (p Pagination) HasMore() bool { return p.Current < p.Pages }

// Message is the body of mutation responses.
type Message struct {
	Message string `json:"message"`
}

// List fetches a list endpoint shaped { <key>: [...], pagination: {...} } and
// decodes the collection into out. A bare JSON array is also accepted.
func (c *Client) List(ctx context.Context, path string, query url.Values, key string, out interface{}) (Pagination, error) {
	var raw json.RawMessage
	if err := c.GetJSON(ctx, path, query, &raw); err != nil {
		return Pagination{}, err
	}
	return DecodeList(raw, key, out)
}

// DecodeList splits a list envelope into its collection and pagination.
func DecodeList(raw json.RawMessage, key string, out interface{}) (Pagination, error) {
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, out); err != nil {
			return Pagination{}, fmt.Errorf("decode %s: %w", key, err)
		}
		return Pagination{}, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return Pagination{}, fmt.Errorf("decode %s envelope: %w", key, err)
	}
	var page Pagination
	if p, ok := env["pagination"]; ok {
		if err := json.Unmarshal(p, &page); err != nil {
			return Pagination{}, fmt.Errorf("decode pagination: %w", err)
		}
	}
	items, ok := env[key]
	if !ok {
		items, ok = env["data"]
	}
	if !ok || string(items) == "null" {
		return page, nil
	}
	if err := json.Unmarshal(items, out); err != nil {
		return Pagination{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return page, nil
}

// GetOne fetches a single resource that may be wrapped as { <key>: {...} }
// or returned bare.
func (c *Client) GetOne(ctx context.Context, path, key string, out interface{}) error {
	var raw json.RawMessage
	if err := c.GetJSON(ctx, path, nil, &raw); err != nil {
		return err
	}
	return DecodeOne(raw, key, out)
}

// DecodeOne unwraps { <key>: {...} } when present, else decodes raw as is.
func DecodeOne(raw json.RawMessage, key string, out interface{}) error {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err == nil {
		if inner, ok := env[key]; ok && len(inner) > 0 && inner[0] == '{' {
			raw = inner
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
