// Package apiclient calls the contacts API on behalf of a signed-in user of the web
// front-end.
package apiclient

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

	"gitlab.com/dirk.krummacker/contacts-app/pkg/model"
)

// UpstreamError is returned for every response with a non-2xx status.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("contacts api: status %d", e.Status)
	}
	return fmt.Sprintf("contacts api: status %d: %s", e.Status, e.Message)
}

// Client talks JSON to the contacts API. Requests are not retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the API at baseURL, e.g. "http://localhost:8000".
func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListContacts returns all contacts.
func (c *Client) ListContacts(ctx context.Context, token string) ([]model.Contact, error) {
	var contacts []model.Contact
	err := c.do(ctx, http.MethodGet, "/contacts", token, nil, &contacts)
	return contacts, err
}

// SearchContacts returns the contacts matching q.
func (c *Client) SearchContacts(ctx context.Context, token, q string) ([]model.Contact, error) {
	var contacts []model.Contact
	err := c.do(ctx, http.MethodGet, "/contacts/search?q="+url.QueryEscape(q), token, nil, &contacts)
	return contacts, err
}

func (c *Client) GetContact(ctx context.Context, token, id string) (*model.Contact, error) {
	var contact model.Contact
	if err := c.do(ctx, http.MethodGet, contactPath(id), token, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *Client) CreateContact(ctx context.Context, token string, req model.ContactRequest) (*model.Contact, error) {
	var contact model.Contact
	if err := c.do(ctx, http.MethodPost, "/contacts", token, req, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *Client) UpdateContact(ctx context.Context, token, id string, req model.ContactRequest) (*model.Contact, error) {
	var contact model.Contact
	if err := c.do(ctx, http.MethodPut, contactPath(id), token, req, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *Client) DeleteContact(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, contactPath(id), token, nil, nil)
}

func (c *Client) ToggleFavorite(ctx context.Context, token, id string) (*model.Contact, error) {
	var contact model.Contact
	if err := c.do(ctx, http.MethodPatch, contactPath(id)+"/favorite", token, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// SignIn exchanges credentials for a token. A response without token is not an error
// here; the caller decides what an empty token means.
func (c *Client) SignIn(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	var auth model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signin", "", creds, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func (c *Client) Register(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	var auth model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", creds, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// SignOut invalidates the token upstream and returns the status the API answered with.
func (c *Client) SignOut(ctx context.Context, token string) (int, error) {
	resp, err := c.send(ctx, http.MethodPost, "/auth/signout", token, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func contactPath(id string) string {
	return "/contacts/" + url.PathEscape(id)
}

// do sends the request and decodes a successful response into out, if out is not nil.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	resp, err := c.send(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg model.Message
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &msg) != nil {
			msg.Message = strings.TrimSpace(string(data))
		}
		return &UpstreamError{Status: resp.StatusCode, Message: msg.Message}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, token string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
