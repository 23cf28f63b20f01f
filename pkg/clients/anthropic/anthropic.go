// Package anthropic generates the optional free-text commentary shown on
// the shift review screen. The ledger treats commentary as best-effort
// enrichment; any failure here is logged and skipped.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bfall/sawshift/internal/domain/models"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	model      = "claude-3-haiku-20240307"
	maxTokens  = 256
)

// Client defines the commentary generation interface.
type Client interface {
	Comment(ctx context.Context, board models.Board, items []models.CartItem, result models.AnalysisResult) (string, error)
}

type anthropicClient struct {
	httpClient *resty.Client
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string) Client {
	client := resty.New().
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &anthropicClient{httpClient: client}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

const systemPrompt = `You are an assistant at a small sawmill. Given one shift's figures, write a single short sentence for the worker's review screen: note whether the yield is good, low, or implausibly high for the board size, nothing else. Plain text, no formatting.`

func (c *anthropicClient) Comment(ctx context.Context, board models.Board, items []models.CartItem, result models.AnalysisResult) (string, error) {
	var lines []string
	lines = append(lines, fmt.Sprintf("Board %s mm, batch %s.", board.DimensionString(), board.BatchID))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%d x %s (%dx%dx%d mm)", item.Quantity, item.Product.Name, item.Product.LengthMm, item.Product.WidthMm, item.Product.ThicknessMm))
	}
	lines = append(lines, fmt.Sprintf("Earnings %.2f, yield %d%%.", result.Earnings, result.YieldPercent))

	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: strings.Join(lines, "\n")}},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(apiURL)
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: %s", resp.String())
	}
	if len(respBody.Content) == 0 {
		return "", fmt.Errorf("empty response from ai")
	}

	return strings.TrimSpace(respBody.Content[0].Text), nil
}
