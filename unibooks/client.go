package unibooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client issues authenticated requests against the Unibooks backend. It is
// the only piece of the program that talks to the network; everything else
// goes through it.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewClient builds a client for the backend at baseURL. A timeout of zero
// falls back to 15s so a hung backend cannot hang the caller forever.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken installs the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) { c.token = token }

// ClearToken removes the bearer token, returning the client to the
// unauthenticated state.
func (c *Client) ClearToken() { c.token = "" }

// do runs one request and decodes a 2xx body into out (when out is
// non-nil). Non-2xx responses become *APIError, transport failures become
// *NetworkError.
func (c *Client) do(ctx context.Context, method, path string, body, out any, wantStatus int) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if wantStatus != 0 {
		ok = resp.StatusCode == wantStatus
	}
	if !ok {
		return apiErrorFrom(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// apiErrorFrom reads the backend's error envelope when one is present.
func apiErrorFrom(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}
	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil {
		apiErr.Code = env.Code
		apiErr.Message = env.Message
	}
	return apiErr
}

// ------------------ Auth ------------------

// Login exchanges credentials for an access token. The backend signals
// success specifically with 201; anything else is a failure.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp LoginResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp, http.StatusCreated); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// ------------------ Books ------------------

func (c *Client) ListBooks(ctx context.Context) ([]Book, error) {
	var books []Book
	if err := c.do(ctx, http.MethodGet, "/libros", nil, &books, 0); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) CreateBook(ctx context.Context, req CreateBookRequest) (*Book, error) {
	var b Book
	if err := c.do(ctx, http.MethodPost, "/libros", req, &b, 0); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) UpdateBook(ctx context.Context, id int, req CreateBookRequest) (*Book, error) {
	var b Book
	if err := c.do(ctx, http.MethodPatch, "/libros/"+strconv.Itoa(id), req, &b, 0); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) DeleteBook(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/libros/"+strconv.Itoa(id), nil, nil, 0)
}

// ------------------ Users ------------------

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users, 0); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/users", req, &u, 0); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int, req CreateUserRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPatch, "/users/"+strconv.Itoa(id), req, &u, 0); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/users/"+strconv.Itoa(id), nil, nil, 0)
}

// ------------------ Loans ------------------

// ListLoansOptions narrows GET /prestamos. Zero values mean "no filter".
type ListLoansOptions struct {
	UserID int
	Limit  int
}

func (c *Client) ListLoans(ctx context.Context, opts ListLoansOptions) ([]Loan, error) {
	path := "/prestamos"
	q := url.Values{}
	if opts.UserID > 0 {
		q.Set("userId", strconv.Itoa(opts.UserID))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var loans []Loan
	if err := c.do(ctx, http.MethodGet, path, nil, &loans, 0); err != nil {
		return nil, err
	}
	return loans, nil
}

func (c *Client) CreateLoan(ctx context.Context, req CreateLoanRequest) (*Loan, error) {
	var l Loan
	if err := c.do(ctx, http.MethodPost, "/prestamos", req, &l, 0); err != nil {
		return nil, err
	}
	return &l, nil
}

// ReturnLoan marks the loan returned; the backend stamps the actual
// return date.
func (c *Client) ReturnLoan(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPatch, "/prestamos/"+strconv.Itoa(id)+"/devolver", nil, nil, 0)
}

func (c *Client) DeleteLoan(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/prestamos/"+strconv.Itoa(id), nil, nil, 0)
}
