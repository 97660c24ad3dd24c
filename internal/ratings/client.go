package ratings

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resty.dev/v3"

	"github.com/bassista/go_ratebadge/internal/config"
	"github.com/bassista/go_ratebadge/internal/logger"
)

const (
	summaryPath    = "/api/v1/reports/summaries/{appid}.json"
	appDetailsPath = "/proxy/steam/api/appdetails/"
)

// Response is an upstream reply. Body is kept verbatim.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the upstream answered 200.
func (r Response) OK() bool {
	return r.Status == http.StatusOK
}

// Client fetches rating summaries and store metadata.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient creates a client for cfg.BaseURL with a bounded request timeout.
func NewClient(cfg config.RatingsConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.HTTPTimeout).
		SetHeader("Accept", "application/json")
	return &Client{http: client, baseURL: base}
}

// BaseURL is the ratings site root, used for links back to the app page.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// Summary fetches the report summary for an app.
func (c *Client) Summary(ctx context.Context, appID string) (Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetPathParam("appid", appID)
	return c.do(req, summaryPath)
}

// AppDetails fetches store metadata for an app through the ratings site proxy.
func (c *Client) AppDetails(ctx context.Context, appID string) (Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("appids", appID)
	return c.do(req, appDetailsPath)
}

func (c *Client) do(req *resty.Request, path string) (Response, error) {
	resp, err := req.SetDoNotParseResponse(true).Get(path)
	if err != nil {
		return Response{}, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.RawResponse.Body.Close()

	logger.WithComponent("ratings").Infof("HTTP GET @ %s -> %d", resp.RawResponse.Request.URL, resp.RawResponse.StatusCode)

	body, err := io.ReadAll(resp.RawResponse.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read %s body: %w", path, err)
	}
	return Response{Status: resp.RawResponse.StatusCode, Body: body}, nil
}
