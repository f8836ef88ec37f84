package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// Generate makes one generateContent call for c. The budget bounds the
// whole exchange and cancels the HTTP request when it runs out. No
// retries happen here.
func (c *Client) Generate(ctx context.Context, cand Candidate, prompt string, budget time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if !c.generation.empty() {
		gc := c.generation
		reqBody.GenerationConfig = &gc
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	path := fmt.Sprintf("%s/models/%s:%s", cand.APIVersion, cand.ID(), methodGenerateContent)
	reqURL, endpoint := c.endpoint(path, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(ctx, endpoint, budget, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		uerr := &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Endpoint:   endpoint,
			Body:       readLimitedBody(resp.Body),
		}
		c.log.Debug().
			Str("candidate", cand.String()).
			Int("status", resp.StatusCode).
			Str("body", uerr.Snippet()).
			Msg("generateContent rejected")
		return "", uerr
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return "", transportError(ctx, endpoint, budget, err)
		}
		return "", fmt.Errorf("decode response from %s: %w", endpoint, err)
	}

	if len(out.Candidates) == 0 {
		return "", &EmptyResponseError{Endpoint: endpoint}
	}
	first := out.Candidates[0]
	var text strings.Builder
	for _, p := range first.Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return "", &EmptyResponseError{Endpoint: endpoint, FinishReason: first.FinishReason}
	}

	c.log.Debug().
		Str("candidate", cand.String()).
		Dur("elapsed", time.Since(start)).
		Int("chars", text.Len()).
		Msg("generateContent ok")
	return text.String(), nil
}
