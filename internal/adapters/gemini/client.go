package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flightdesk/internal/domain"
)

// Client calls the Gemini generateContent REST endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(httpClient *http.Client, baseURL, apiKey, model string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// APIError is returned for non-200 responses.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini: HTTP %d: %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini: HTTP %d: %s", e.StatusCode, e.Message)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends one user turn with an optional system instruction and
// returns the concatenated text of the first candidate.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", errors.Wrap(err, "gemini: marshaling request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "gemini: creating request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "gemini: sending request"), domain.ErrExternalServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Mark(readAPIError(resp), domain.ErrExternalServiceUnavailable)
	}

	var wire generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return "", errors.Mark(errors.Wrap(err, "gemini: decoding response"), domain.ErrExternalServiceUnavailable)
	}
	if wire.PromptFeedback.BlockReason != "" {
		return "", errors.Mark(errors.Newf("gemini: prompt blocked: %s", wire.PromptFeedback.BlockReason), domain.ErrExternalServiceUnavailable)
	}
	if len(wire.Candidates) == 0 {
		return "", errors.Mark(errors.New("gemini: no candidates"), domain.ErrExternalServiceUnavailable)
	}

	var sb strings.Builder
	for _, p := range wire.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.Mark(errors.Newf("gemini: empty reply (finish reason %q)", wire.Candidates[0].FinishReason), domain.ErrExternalServiceUnavailable)
	}
	return text, nil
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
}

// readAPIError parses {"error":{"code":..,"message":..,"status":..}}.
func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var wire struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Error.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Status: wire.Error.Status, Message: wire.Error.Message}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
}
