package registryapi

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

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
)

const (
	apiPrefix = "/api/2.0/mlflow"

	// UserHeader carries the caller identity to the backend.
	UserHeader = "X-User-ID"
)

type Config struct {
	BaseURL      string
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client talks to the registry backend over its REST API. Only reads are
// retried; a mutation is sent exactly once.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	userID  string
}

var _ ports.RegistryClient = (*Client)(nil)

func NewClient(cfg Config) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{entry: log.WithField("component", "registryapi")}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    rc,
	}
}

// ForUser returns a client that acts as userID. The transport is shared.
func (c *Client) ForUser(userID string) *Client {
	out := *c
	out.userID = userID
	return &out
}

type idempotentKey struct{}

// checkRetry applies the default policy to idempotent requests only.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if idempotent, _ := ctx.Value(idempotentKey{}).(bool); !idempotent {
		return false, ctx.Err()
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, apiPrefix+path, query, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) error {
	return c.do(ctx, method, apiPrefix+path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	raw, err := c.roundTrip(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	if method == http.MethodGet {
		ctx = context.WithValue(ctx, idempotentKey{}, true)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload interface{}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		payload = b
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set(UserHeader, c.userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, raw)
	}
	return raw, nil
}

// parseError builds an APIError from an error payload of the form
// {"error_code": "...", "message": "..."}. Non-JSON bodies keep the status.
func parseError(status int, body []byte) *domain.APIError {
	apiErr := &domain.APIError{StatusCode: status}
	if gjson.ValidBytes(body) {
		apiErr.Code = domain.ErrorCode(gjson.GetBytes(body, "error_code").String())
		apiErr.Message = gjson.GetBytes(body, "message").String()
	}
	if apiErr.Code == "" {
		apiErr.Code = codeForStatus(status)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func codeForStatus(status int) domain.ErrorCode {
	switch {
	case status == http.StatusNotFound:
		return domain.ErrorCodeResourceDoesNotExist
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return domain.ErrorCodePermissionDenied
	case status == http.StatusConflict:
		return domain.ErrorCodeResourceAlreadyExists
	case status == http.StatusServiceUnavailable:
		return domain.ErrorCodeTemporarilyUnavailable
	case status >= 400 && status < 500:
		return domain.ErrorCodeInvalidParameterValue
	default:
		return domain.ErrorCodeInternalError
	}
}

// leveledLogger routes retryablehttp's logging through logrus.
type leveledLogger struct {
	entry *log.Entry
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.with(kv).Error(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.with(kv).Warn(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.with(kv).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.with(kv).Debug(msg) }

func (l leveledLogger) with(kv []interface{}) *log.Entry {
	fields := make(log.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			fields[k] = kv[i+1]
		}
	}
	return l.entry.WithFields(fields)
}
