package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/damon-houk/anvil-basic-tx/internal/domain/entity"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/logger"
)

const (
	// DefaultBaseURL is the preprod Anvil services endpoint
	DefaultBaseURL = "https://preprod.api.ada-anvil.app/v2/services"

	buildPath  = "/transactions/build"
	healthPath = "/health"

	apiKeyHeader = "x-api-key"
)

var (
	// ErrEmptyResponse is returned when the service answers with no body at all
	ErrEmptyResponse = errors.New("empty response body")
	// ErrMalformedResponse is returned when the body is not a single JSON value
	ErrMalformedResponse = errors.New("malformed response body")
)

// AnvilAPIClient talks to the Anvil transaction-building service
type AnvilAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
}

// NewAnvilAPIClient creates a new Anvil API client. A zero timeout leaves
// requests bounded only by the context.
func NewAnvilAPIClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *AnvilAPIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &AnvilAPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// BuildTransaction posts the request to the build endpoint and decodes whatever
// JSON comes back. Non-2xx answers are returned as results, not errors.
func (c *AnvilAPIClient) BuildTransaction(ctx context.Context, req *entity.BuildRequest) (*entity.BuildResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal build request")
	}

	reqURL := c.baseURL + buildPath

	c.logger.Debug("Sending build request", map[string]interface{}{
		"url":            reqURL,
		"change_address": req.ChangeAddress,
		"outputs":        len(req.Outputs),
		"lovelace":       req.TotalLovelace(),
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(apiKeyHeader, c.apiKey)

	statusCode, bodyBytes, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	body, err := decodeJSON(bodyBytes)
	if err != nil {
		c.logger.Debug("Undecodable response body", map[string]interface{}{
			"status":      statusCode,
			"body_length": len(bodyBytes),
		})
		return nil, err
	}

	if statusCode < 200 || statusCode > 299 {
		c.logger.Warn("Build service returned a non-success status", map[string]interface{}{
			"status": statusCode,
		})
	}

	return &entity.BuildResult{StatusCode: statusCode, Body: body}, nil
}

// Health fetches the service's health endpoint and returns the body as text
func (c *AnvilAPIClient) Health(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(apiKeyHeader, c.apiKey)

	statusCode, bodyBytes, err := c.do(httpReq)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Health response received", map[string]interface{}{
		"status": statusCode,
	})

	return string(bodyBytes), nil
}

// do executes the request once and reads the whole body
func (c *AnvilAPIClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "failed to execute %s %s", req.Method, req.URL.Path)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Error closing response body", map[string]interface{}{
				"error": closeErr,
			})
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to read response body")
	}

	return resp.StatusCode, bodyBytes, nil
}

// decodeJSON parses exactly one JSON value, keeping numbers as json.Number
func decodeJSON(data []byte) (interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyResponse
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrapf(ErrMalformedResponse, "%v", err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Wrap(ErrMalformedResponse, "unexpected data after JSON value")
	}

	return v, nil
}
