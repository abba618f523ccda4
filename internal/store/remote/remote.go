// Package remote is the HTTP client side of `corkboard serve`.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"corkboard-cli/internal/store"
)

// Client implements store.Store against a record-store server.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

var _ store.Store = (*Client)(nil)

func New(baseURL, token string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url: unsupported scheme %q", u.Scheme)
	}
	return &Client{
		base:  u,
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// WithHTTPClient replaces the transport (tests).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

func (c *Client) Select(ctx context.Context, t store.Table, f store.Filter, order ...store.Order) ([]store.Row, error) {
	var resp store.SelectResponse
	if err := c.do(ctx, http.MethodPost, string(t)+"/select", store.SelectRequest{Filter: f, Order: order}, &resp); err != nil {
		return nil, fmt.Errorf("select %s: %w", t, err)
	}
	return resp.Rows, nil
}

func (c *Client) Insert(ctx context.Context, t store.Table, row store.Row) (store.Row, error) {
	var resp store.InsertResponse
	if err := c.do(ctx, http.MethodPost, string(t), store.InsertRequest{Row: row}, &resp); err != nil {
		return nil, fmt.Errorf("insert %s: %w", t, err)
	}
	return resp.Row, nil
}

func (c *Client) Update(ctx context.Context, t store.Table, f store.Filter, patch store.Row) error {
	if err := c.do(ctx, http.MethodPatch, string(t), store.UpdateRequest{Filter: f, Patch: patch}, nil); err != nil {
		return fmt.Errorf("update %s: %w", t, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, t store.Table, f store.Filter) error {
	if err := c.do(ctx, http.MethodDelete, string(t), store.DeleteRequest{Filter: f}, nil); err != nil {
		return fmt.Errorf("delete from %s: %w", t, err)
	}
	return nil
}

// Ping checks /healthz.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/healthz", nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return store.StatusError{Status: res.StatusCode, Message: "healthz"}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+"/api/v1/"+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, 16<<20))
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		var er store.ErrorResponse
		if err := json.Unmarshal(data, &er); err == nil && er.Code != "" {
			if wrapped := store.ErrorFromWire(er); store.ErrorCode(wrapped) != "" {
				return wrapped
			}
			return store.StatusError{Status: res.StatusCode, Message: er.Error}
		}
		return store.StatusError{Status: res.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}
