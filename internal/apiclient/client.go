package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/analytics"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
)

// ResponseError is a non-2xx answer from the remote API. Message is the
// body's error string and may be empty.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote api returned status %d: %s", e.StatusCode, e.Message)
}

type AuthResult struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	schemas    *SchemaValidator
	logger     *slog.Logger
}

// New builds a client whose transport attaches tokens from tokens. A nil
// schemas disables boundary validation.
func New(cfg internal.APIConfig, tokens TokenSource, schemas *SchemaValidator, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", cfg.BaseURL, err)
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &BearerTransport{Base: http.DefaultTransport, Token: tokens},
		},
		schemas: schemas,
		logger:  logger,
	}, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	req := LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, SchemaAuthResult, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, SchemaAuthResult, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListExpenses(ctx context.Context, filter expense.ListFilter) ([]expense.Expense, error) {
	query := url.Values{}
	for key, value := range map[string]string{
		"startDate": filter.StartDate,
		"endDate":   filter.EndDate,
		"category":  filter.Category,
		"status":    filter.Status,
	} {
		if value != "" {
			query.Set(key, value)
		}
	}

	var expenses []expense.Expense
	if err := c.do(ctx, http.MethodGet, "/expenses", query, nil, SchemaExpenseList, &expenses); err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []expense.Expense{}
	}
	return expenses, nil
}

func (c *Client) GetExpense(ctx context.Context, id string) (*expense.Expense, error) {
	var exp expense.Expense
	if err := c.do(ctx, http.MethodGet, "/expenses/"+url.PathEscape(id), nil, nil, SchemaExpense, &exp); err != nil {
		return nil, err
	}
	return &exp, nil
}

func (c *Client) CreateExpense(ctx context.Context, req expense.CreateRequest) (*expense.Expense, error) {
	var exp expense.Expense
	if err := c.do(ctx, http.MethodPost, "/expenses", nil, req, SchemaExpense, &exp); err != nil {
		return nil, err
	}
	return &exp, nil
}

func (c *Client) Analytics(ctx context.Context) (*analytics.Snapshot, error) {
	var snapshot analytics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/admin/analytics", nil, nil, SchemaAnalyticsSnapshot, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, req expense.StatusUpdateRequest) (*expense.Expense, error) {
	var exp expense.Expense
	path := "/admin/expenses/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, nil, req, SchemaExpense, &exp); err != nil {
		return nil, err
	}
	return &exp, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, schema string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	c.logger.Debug("api request completed", "method", method, "path", path, "status", resp.StatusCode)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respErr := &ResponseError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			respErr.Message = env.Error
			if respErr.Message == "" {
				respErr.Message = env.Message
			}
		}
		return respErr
	}

	if decodeErr != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, decodeErr)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("%s %s response has no data", method, path)
	}

	if c.schemas != nil {
		if err := c.schemas.Validate(schema, env.Data); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s data: %w", method, path, err)
	}
	return nil
}

// RemoteMessage extracts the API's error string from err, if it carries one.
func RemoteMessage(err error) string {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Message
	}
	return ""
}

// StatusCode is the HTTP status behind err, or 0 when the API never answered.
func StatusCode(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}
