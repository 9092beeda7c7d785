package providerimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/internal/provider"
	"github.com/vuongnp/tiktok-insight-service/pkg/config"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

// APIClient talks to the RapidAPI-hosted scraper. One HTTP call per method;
// pagination and pacing are the collectors' job.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
	host       string
	apiKey     string
	logger     logger.Logger
}

func New(opts Opts) (*APIClient, error) {
	key := strings.TrimSpace(opts.Config.Provider.APIKey)
	if len(key) < 10 {
		return nil, fmt.Errorf("provider API key missing or too short")
	}

	return &APIClient{
		httpClient: &http.Client{Timeout: opts.Config.Provider.RequestTimeout},
		baseURL:    strings.TrimRight(opts.Config.Provider.BaseURL, "/"),
		host:       opts.Config.Provider.Host,
		apiKey:     key,
		logger:     opts.Logger,
	}, nil
}

var _ provider.Client = (*APIClient)(nil)

func (c *APIClient) ListItems(ctx context.Context, query domain.Query, cursor string) (*provider.ItemPage, error) {
	var endpoint string
	params := url.Values{}

	switch query.Kind {
	case domain.QueryHashtag:
		endpoint = fmt.Sprintf("/challenge/%s/feed", url.PathEscape(query.Value))
	case domain.QueryAccount:
		endpoint = fmt.Sprintf("/user/%s/feed", url.PathEscape(query.Value))
	case domain.QuerySearch:
		endpoint = "/search/videos"
		params.Set("keyword", query.Value)
	default:
		return nil, &provider.Error{Endpoint: "listing", Message: fmt.Sprintf("unsupported query kind %q", query.Kind)}
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var payload listingPayload
	if err := c.get(ctx, endpoint, params, &payload); err != nil {
		return nil, err
	}

	page := &provider.ItemPage{
		NextCursor: payload.Data.Cursor,
		HasMore:    payload.Data.HasMore,
	}
	for _, raw := range payload.Data.AwemeList {
		item, ok := raw.toDomain(query.Tag())
		if !ok {
			c.logger.Debug("Skipping listing entry without id", "endpoint", endpoint)
			continue
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

func (c *APIClient) ListComments(ctx context.Context, itemID string, cursor string) (*provider.CommentPage, error) {
	endpoint := fmt.Sprintf("/comments/%s", url.PathEscape(itemID))
	params := url.Values{}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var payload commentsPayload
	if err := c.get(ctx, endpoint, params, &payload); err != nil {
		return nil, err
	}

	page := &provider.CommentPage{
		NextCursor: payload.Data.Cursor,
		HasMore:    payload.Data.HasMore,
	}
	for _, raw := range payload.Data.Comments {
		comment, ok := raw.toDomain(itemID)
		if !ok {
			continue
		}
		page.Comments = append(page.Comments, comment)
	}
	return page, nil
}

// get performs one GET against the provider and decodes the shared
// {status, data} envelope into out.
func (c *APIClient) get(ctx context.Context, endpoint string, params url.Values, out envelope) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &provider.Error{Endpoint: endpoint, Message: err.Error()}
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &provider.Error{Endpoint: endpoint, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.Warn("Provider call failed", "endpoint", endpoint, "status", resp.StatusCode)
		return &provider.Error{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    "unexpected HTTP status",
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &provider.Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "malformed response body"}
	}
	if status := out.statusField(); status != "ok" {
		return &provider.Error{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("provider reported status %q", status),
		}
	}
	return nil
}
