// Package api is the single place requests to the rental backend are built,
// sent and classified.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"car-rental/internal/logutil"
	"car-rental/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is used when Config.BaseURL is empty.
const DefaultBaseURL = "http://localhost:3000/api"

const maxBodyBytes = 4 << 20

// Session is the part of the session store the client needs.
type Session interface {
	Token(ctx context.Context) (string, error)
	SetSession(ctx context.Context, token string, user models.User) error
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client issues requests against the backend. It makes exactly one attempt
// per call and imposes no timeout beyond the caller's context.
type Client struct {
	baseURL  string
	http     *http.Client
	session  Session
	log      zerolog.Logger
	validate *validator.Validate
}

// New returns a Client for cfg.BaseURL using sess for credentials.
func New(cfg Config, sess Session) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", base)
	}

	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		*hc = *cfg.HTTPClient
	}
	rt := hc.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	hc.Transport = otelhttp.NewTransport(rt)

	return &Client{
		baseURL:  strings.TrimRight(base, "/"),
		http:     hc,
		session:  sess,
		log:      cfg.Logger.With().Str("component", "api").Logger(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends one request. body, when non-nil, is sent as JSON; out, when
// non-nil, receives the decoded and validated response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	reqID := uuid.NewString()
	logger := c.log.With().Str("method", method).Str("path", path).Str("request_id", reqID).Logger()
	defer logutil.NewTimingLogger(logger, time.Now(), "api request", nil)()

	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Message: "could not encode request", Err: err}
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return &Error{Kind: KindValidation, Message: "could not build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	token, err := c.session.Token(ctx)
	if err != nil {
		return logutil.LogAndWrapErr(logger, "failed to read session", err, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("request failed before a response arrived")
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("response body lost")
		return &Error{Kind: KindNetwork, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Kind: KindRejected, Status: resp.StatusCode, Message: extractMessage(data)}
		logger.Info().Int("status", resp.StatusCode).Str("message", apiErr.Message).Msg("request rejected")
		return apiErr
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return responseError(fmt.Sprintf("empty response body from %s %s", method, path), nil)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return responseError("unexpected response shape", err)
	}
	if err := c.check(out); err != nil {
		return responseError("response failed validation", err)
	}
	return nil
}

// extractMessage returns the "message" field of a JSON error body, if any.
func extractMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if strings.TrimSpace(body.Message) == "" {
		return ""
	}
	return body.Message
}

// check validates a decoded struct or every struct in a decoded slice.
func (c *Client) check(out any) error {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return c.validate.Struct(v.Addr().Interface())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			if elem.Kind() != reflect.Struct {
				continue
			}
			if err := c.validate.Struct(elem.Addr().Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}
