package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/everstacklabs/modelfilter/internal/adapter"
	"github.com/everstacklabs/modelfilter/internal/catalog"
	"github.com/everstacklabs/modelfilter/internal/httpclient"
)

// DefaultBaseURL is the public OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// minExpectedRecords is well below the live catalog size (300+).
const minExpectedRecords = 50

func init() {
	adapter.Register(&OpenRouter{baseURL: DefaultBaseURL})
}

// OpenRouter fetches the model catalog from the OpenRouter /models endpoint.
type OpenRouter struct {
	apiKey  string
	baseURL string
	client  *httpclient.Client
}

func (o *OpenRouter) Name() string { return "openrouter" }

func (o *OpenRouter) Type() adapter.SourceType { return adapter.SourceAPI }

// Configure sets up the source with API credentials and HTTP client. An
// empty baseURL keeps DefaultBaseURL.
func (o *OpenRouter) Configure(apiKey, baseURL string, client *httpclient.Client) {
	o.apiKey = strings.TrimSpace(apiKey)
	if baseURL != "" {
		o.baseURL = strings.TrimRight(baseURL, "/")
	}
	o.client = client
}

// HealthCheck verifies the source is configured. The catalog endpoint is
// the only call made, so no separate probe request is sent.
func (o *OpenRouter) HealthCheck(ctx context.Context) error {
	if o.apiKey == "" {
		return fmt.Errorf("%w: no API key provided; set OPENROUTER_API_KEY or openrouter.api_key", catalog.ErrUnavailable)
	}
	if o.client == nil {
		return fmt.Errorf("%w: openrouter source not configured", catalog.ErrUnavailable)
	}
	return ctx.Err()
}

func (o *OpenRouter) MinExpectedRecords() int { return minExpectedRecords }

// Fetch downloads and parses the full /models listing.
func (o *OpenRouter) Fetch(ctx context.Context) (*catalog.Snapshot, error) {
	if err := o.HealthCheck(ctx); err != nil {
		return nil, err
	}

	url := o.baseURL + "/models"
	headers := map[string]string{
		"Authorization": "Bearer " + o.apiKey,
	}

	resp, err := o.client.Get(ctx, url, headers)
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: openrouter rejected the API key (status %d)", catalog.ErrUnavailable, se.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", catalog.ErrUnavailable, err)
	}

	records, err := catalog.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", catalog.ErrUnavailable, url, err)
	}

	return &catalog.Snapshot{Source: url, Records: records}, nil
}
