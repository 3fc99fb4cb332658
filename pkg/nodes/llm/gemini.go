// Package llm contains the language model client used by the AI nodes.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/petrijr/nodeflux/pkg/api"
	"golang.org/x/time/rate"
)

const (
	DefaultModel   = "models/gemini-2.5-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// ErrNoResponse is returned when the model answers without any text.
var ErrNoResponse = errors.New("gemini returned no response text")

// Part is one piece of a prompt: either text or a reference to a file the
// model should read (for example a YouTube URL).
type Part struct {
	Text    string
	FileURI string
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, parts ...Part) (string, error)
}

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string

	// RequestsPerSecond throttles outgoing calls; zero disables throttling.
	RequestsPerSecond float64

	HTTPClient *http.Client
}

// GeminiClient calls the generateContent REST endpoint.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

var _ Generator = (*GeminiClient)(nil)

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	c := &GeminiClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if !strings.HasPrefix(c.model, "models/") {
		c.model = "models/" + c.model
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 120 * time.Second}
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string    `json:"role,omitempty"`
	Parts []reqPart `json:"parts"`
}

type reqPart struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	FileURI string `json:"file_uri"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends parts as a single user turn and returns the concatenated
// text of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, parts ...Part) (string, error) {
	if c.apiKey == "" {
		return "", api.Fail(api.FailureUnavailable, "gemini API key is not configured; set GEMINI_API_KEY")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", api.Wrap(api.FailureUnavailable, err, "gemini rate limiter")
		}
	}

	body := generateRequest{Contents: []content{{Role: "user"}}}
	for _, p := range parts {
		if p.FileURI != "" {
			body.Contents[0].Parts = append(body.Contents[0].Parts, reqPart{FileData: &fileData{FileURI: p.FileURI}})
		}
		if p.Text != "" {
			body.Contents[0].Parts = append(body.Contents[0].Parts, reqPart{Text: p.Text})
		}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", api.Wrap(api.FailureInternal, err, "encode gemini request")
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", api.Wrap(api.FailureInternal, err, "build gemini request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", api.Wrap(api.FailureUnavailable, err, "gemini request failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", api.Wrap(api.FailureUnavailable, err, "read gemini response")
	}

	var out generateResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", api.Fail(statusKind(resp.StatusCode), "gemini returned HTTP %d", resp.StatusCode)
		}
		return "", api.Wrap(api.FailureInternal, err, "decode gemini response")
	}
	if out.Error != nil {
		return "", api.Fail(statusKind(resp.StatusCode), "gemini error %d (%s): %s", out.Error.Code, out.Error.Status, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", api.Fail(statusKind(resp.StatusCode), "gemini returned HTTP %d", resp.StatusCode)
	}

	var sb strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", api.Wrap(api.FailureUnavailable, ErrNoResponse, "gemini call")
	}
	return text, nil
}

func statusKind(code int) api.FailureKind {
	switch {
	case code == http.StatusNotFound:
		return api.FailureNotFound
	case code == http.StatusBadRequest:
		return api.FailureInvalidArgument
	case code >= 500, code == http.StatusTooManyRequests, code == http.StatusUnauthorized, code == http.StatusForbidden:
		return api.FailureUnavailable
	}
	return api.FailureInternal
}
