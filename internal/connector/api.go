package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/merchops/supplier-mdm/internal/domain"
)

// dataEnvelopeFields are the common wrapper keys APIs use around their record
// arrays, tried in order.
var dataEnvelopeFields = []string{"data", "items", "results", "products", "records"}

// APIConnector pulls sample data from a supplier's HTTP API.
type APIConnector struct {
	config domain.APIConfig
	client *http.Client
}

// NewAPIConnector builds a connector with a bounded-timeout HTTP client.
func NewAPIConnector(config domain.APIConfig) *APIConnector {
	return &APIConnector{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *APIConnector) TestConnection(ctx context.Context) Result {
	req, err := c.newRequest(ctx, http.MethodHead, c.config.URL, nil)
	if err != nil {
		return failure(fmt.Sprintf("Failed to prepare request for %s", c.config.URL), err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return failure(fmt.Sprintf("Failed to connect to API at %s", c.config.URL), err)
	}
	_ = resp.Body.Close()

	// Some APIs reject HEAD; retry with GET before reporting failure.
	if resp.StatusCode == http.StatusMethodNotAllowed {
		req, err = c.newRequest(ctx, http.MethodGet, c.config.URL, nil)
		if err != nil {
			return failure(fmt.Sprintf("Failed to prepare request for %s", c.config.URL), err)
		}
		resp, err = c.client.Do(req)
		if err != nil {
			return failure(fmt.Sprintf("Failed to connect to API at %s", c.config.URL), err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	if resp.StatusCode >= 400 {
		return failure(
			fmt.Sprintf("API at %s returned status %d", c.config.URL, resp.StatusCode),
			fmt.Errorf("unexpected status %s", resp.Status),
		)
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Successfully connected to API at %s", c.config.URL),
	}
}

func (c *APIConnector) PullSample(ctx context.Context, limit int) Result {
	endpoint, err := c.sampleURL(limit)
	if err != nil {
		return failure(fmt.Sprintf("Invalid API URL %s", c.config.URL), err)
	}

	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return failure(fmt.Sprintf("Failed to prepare request for %s", c.config.URL), err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return failure(fmt.Sprintf("Failed to pull sample data from API at %s", c.config.URL), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return failure(
			fmt.Sprintf("API at %s returned status %d", c.config.URL, resp.StatusCode),
			fmt.Errorf("unexpected status %s", resp.Status),
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return failure("Failed to read API response", err)
	}

	records, err := decodeRecords(body, limit)
	if err != nil {
		return failure("Failed to decode API response as records", err)
	}

	return Result{
		Success:    true,
		Message:    fmt.Sprintf("Successfully retrieved %d records from API", len(records)),
		SampleData: records,
	}
}

// sampleURL appends the pagination query parameters appropriate for the
// configured pagination style.
func (c *APIConnector) sampleURL(limit int) (string, error) {
	parsed, err := url.Parse(c.config.URL)
	if err != nil {
		return "", err
	}

	query := parsed.Query()
	switch c.config.PaginationType {
	case "offset":
		query.Set(c.paginationParam("limit_param", "limit"), strconv.Itoa(limit))
		query.Set(c.paginationParam("offset_param", "offset"), "0")
	case "page":
		query.Set(c.paginationParam("limit_param", "per_page"), strconv.Itoa(limit))
		query.Set(c.paginationParam("page_param", "page"), "1")
	case "":
		query.Set("limit", strconv.Itoa(limit))
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *APIConnector) paginationParam(key, fallback string) string {
	if raw, ok := c.config.PaginationParams[key]; ok {
		if name, ok := raw.(string); ok && name != "" {
			return name
		}
	}
	return fallback
}

func (c *APIConnector) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	switch c.config.AuthType {
	case "basic":
		req.SetBasicAuth(c.config.Username, c.config.Password)
	case "token":
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	case "oauth":
		token, err := c.fetchOAuthToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("oauth authentication failed: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// fetchOAuthToken runs a client-credentials grant against the configured
// OAuth endpoint. Token refresh and caching are out of scope for test pulls.
func (c *APIConnector) fetchOAuthToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.OAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("oauth endpoint returned status %s", resp.Status)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode oauth response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("no access_token in oauth response")
	}
	return payload.AccessToken, nil
}

// decodeRecords accepts either a bare JSON array of objects or a common
// envelope object wrapping one; a plain object becomes a single record.
func decodeRecords(body []byte, limit int) ([]domain.Record, error) {
	var asList []domain.Record
	if err := json.Unmarshal(body, &asList); err == nil {
		return truncate(asList, limit), nil
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(body, &asObject); err != nil {
		return nil, fmt.Errorf("response is neither an array nor an object: %w", err)
	}

	for _, field := range dataEnvelopeFields {
		raw, ok := asObject[field]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &asList); err == nil && len(asList) > 0 {
			return truncate(asList, limit), nil
		}
	}

	var single domain.Record
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []domain.Record{single}, nil
}

func truncate(records []domain.Record, limit int) []domain.Record {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
