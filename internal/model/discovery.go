package model

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
)

const (
	discoveryPageSize = "1000"
	maxDiscoveryPages = 10
)

type listModelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
	NextPageToken string `json:"nextPageToken"`
}

// ListModels returns the models deployed under apiVersion in listing
// order. The whole listing, all pages included, shares the discovery
// timeout. Every failure is a *DiscoveryError.
func (c *Client) ListModels(ctx context.Context, apiVersion string) ([]Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.discoveryTimeout)
	defer cancel()

	var out []Candidate
	pageToken := ""
	for page := 0; page < maxDiscoveryPages; page++ {
		resp, err := c.listPage(ctx, apiVersion, pageToken)
		if err != nil {
			return nil, &DiscoveryError{APIVersion: apiVersion, Err: err}
		}
		for _, m := range resp.Models {
			out = append(out, Candidate{
				Name:               m.Name,
				APIVersion:         apiVersion,
				SupportsGeneration: slices.Contains(m.SupportedGenerationMethods, methodGenerateContent),
			})
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	c.log.Debug().Str("api_version", apiVersion).Int("models", len(out)).Msg("discovery ok")
	return out, nil
}

func (c *Client) listPage(ctx context.Context, apiVersion, pageToken string) (*listModelsResponse, error) {
	q := url.Values{}
	q.Set("pageSize", discoveryPageSize)
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	reqURL, endpoint := c.endpoint(apiVersion+"/models", q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, endpoint, c.discoveryTimeout, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Endpoint:   endpoint,
			Body:       readLimitedBody(resp.Body),
		}
	}

	var out listModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return nil, transportError(ctx, endpoint, c.discoveryTimeout, err)
		}
		return nil, fmt.Errorf("decode model list from %s: %w", endpoint, err)
	}
	return &out, nil
}
