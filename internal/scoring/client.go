package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codezelat/pitchlens/pkg/models"
)

// Sentinel errors for scoring service failures.
var (
	ErrUnreachable = errors.New("scoring service unreachable")
	ErrStatus      = errors.New("scoring service returned non-success status")
	ErrTimeout     = errors.New("scoring service timeout")
	ErrInvalidBody = errors.New("scoring service returned invalid body")
)

// Client is the interface for talking to the scoring service.
type Client interface {
	Latest(ctx context.Context) (models.AnalysisRecord, error)
	List(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
	Analyze(ctx context.Context, req AnalyzeRequest) (models.AnalysisRecord, error)
	Ready(ctx context.Context) error
}

// AnalyzeRequest is the body of a new analysis submission.
type AnalyzeRequest struct {
	Message *string        `json:"message,omitempty"`
	URL     *string        `json:"url,omitempty"`
	Tone    models.Tone    `json:"tone"`
	Persona models.Persona `json:"persona"`
}

type tokenKey struct{}

// WithToken attaches a caller's bearer token to ctx. It takes precedence over
// the client's configured token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey{}).(string)
	return t, ok && t != ""
}

// HTTPClient implements Client using the scoring service's HTTP API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a new scoring HTTP client.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Latest fetches the most recent analysis.
func (c *HTTPClient) Latest(ctx context.Context) (models.AnalysisRecord, error) {
	var body json.RawMessage
	if err := c.getJSON(ctx, "/analyses/latest", &body); err != nil {
		return models.AnalysisRecord{}, err
	}
	wire, err := DecodeRecord(body)
	if err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("latest: %w", err)
	}
	return MapRecord(wire), nil
}

// List fetches up to limit analyses, most recent first.
func (c *HTTPClient) List(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/analyses"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var body json.RawMessage
	if err := c.getJSON(ctx, path, &body); err != nil {
		return nil, err
	}
	wire, err := DecodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return MapRecords(wire), nil
}

// Analyze submits a message or url for scoring.
func (c *HTTPClient) Analyze(ctx context.Context, req AnalyzeRequest) (models.AnalysisRecord, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("encoding analyze request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(ctx, httpReq)

	var respBody json.RawMessage
	if err := c.do(httpReq, &respBody); err != nil {
		return models.AnalysisRecord{}, err
	}
	wire, err := DecodeRecord(respBody)
	if err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("analyze: %w", err)
	}
	return MapRecord(wire), nil
}

// Ready probes the scoring service health endpoint.
func (c *HTTPClient) Ready(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: scoring service not ready (status %d)", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(ctx, httpReq)
	return c.do(httpReq, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: status %d", ErrStatus, req.Method, req.URL.Path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}

func (c *HTTPClient) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	token := c.token
	if t, ok := tokenFrom(ctx); ok {
		token = t
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
