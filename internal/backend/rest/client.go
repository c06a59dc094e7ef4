// Package rest implements the backend ports against the external items API.
package rest

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

	"finboard/internal/core"
)

// APIError is a non-2xx response from the backend. Message carries the
// server-reported `error` string verbatim when one was present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to the items API over HTTP. All persistence, filtering,
// sorting and aggregation happen on the far side of this client.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base URL scheme: %s", u.Scheme)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// itemPayload is the wire form of an item for create/update: everything but
// the id, with the amount as a bare JSON number.
type itemPayload struct {
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

func payloadFor(item core.Item) itemPayload {
	return itemPayload{
		Type:        item.Type,
		Amount:      json.Number(item.Amount.String()),
		Category:    item.Category,
		Description: item.Description,
		Date:        item.Date,
	}
}

func listQuery(filter core.ListFilter) url.Values {
	params := url.Values{}
	if filter.From != "" {
		params.Set("from", filter.From)
	}
	if filter.To != "" {
		params.Set("to", filter.To)
	}
	if filter.Category != "" {
		params.Set("category", filter.Category)
	}
	if filter.Type != "" {
		params.Set("type", filter.Type)
	}
	if filter.SortBy != "" {
		params.Set("sort_by", filter.SortBy)
	}
	if filter.Order != "" {
		params.Set("order", filter.Order)
	}
	return params
}

func (c *Client) ListItems(ctx context.Context, filter core.ListFilter) ([]core.Item, error) {
	body, err := c.do(ctx, http.MethodGet, "/items?"+listQuery(filter).Encode(), nil)
	if err != nil {
		return nil, err
	}

	// The list endpoint answers with either a bare array or {items: [...]}.
	var items []core.Item
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Items []core.Item `json:"items"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode item list: %w", err)
	}
	return wrapped.Items, nil
}

func (c *Client) GetItem(ctx context.Context, id string) (core.Item, error) {
	body, err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(id), nil)
	if err != nil {
		return core.Item{}, err
	}
	var item core.Item
	if err := json.Unmarshal(body, &item); err != nil {
		return core.Item{}, fmt.Errorf("decode item: %w", err)
	}
	return item, nil
}

func (c *Client) CreateItem(ctx context.Context, item core.Item) (core.Item, error) {
	body, err := c.do(ctx, http.MethodPost, "/items", payloadFor(item))
	if err != nil {
		return core.Item{}, err
	}
	var created core.Item
	if err := json.Unmarshal(body, &created); err != nil {
		return core.Item{}, fmt.Errorf("decode created item: %w", err)
	}
	return created, nil
}

func (c *Client) UpdateItem(ctx context.Context, item core.Item) (core.Item, error) {
	body, err := c.do(ctx, http.MethodPut, "/items/"+url.PathEscape(item.ID), payloadFor(item))
	if err != nil {
		return core.Item{}, err
	}
	var updated core.Item
	if err := json.Unmarshal(body, &updated); err != nil {
		return core.Item{}, fmt.Errorf("decode updated item: %w", err)
	}
	return updated, nil
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/items/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) Analytics(ctx context.Context, query core.AnalyticsQuery) (core.AnalyticsResult, error) {
	params := url.Values{}
	params.Set("from", query.From)
	params.Set("to", query.To)
	if query.GroupBy != "" {
		params.Set("group_by", query.GroupBy)
	}
	if query.Type != "" {
		params.Set("type", query.Type)
	}

	body, err := c.do(ctx, http.MethodGet, "/analytics?"+params.Encode(), nil)
	if err != nil {
		return core.AnalyticsResult{}, err
	}
	var result core.AnalyticsResult
	if err := json.Unmarshal(body, &result); err != nil {
		return core.AnalyticsResult{}, fmt.Errorf("decode analytics: %w", err)
	}
	return result, nil
}

// ExportURL is the browser navigation target for CSV download. Sort state is
// deliberately absent from the export query.
func (c *Client) ExportURL(filter core.ListFilter) string {
	q := listQuery(filter.ExportFilter()).Encode()
	if q == "" {
		return c.baseURL + "/export/csv"
	}
	return c.baseURL + "/export/csv?" + q
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp.StatusCode, body)
	}
	return body, nil
}

// apiError extracts the server's {error} string; when the body carries no
// structured error a generic message is substituted so the user always sees
// something.
func apiError(status int, body []byte) *APIError {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return &APIError{StatusCode: status, Message: envelope.Error}
	}
	return &APIError{StatusCode: status, Message: fmt.Sprintf("backend request failed (status %d)", status)}
}
