// Package appsscript talks to the Google Apps Script web app that owns the
// spreadsheet's shift records. The script exposes a single POST endpoint
// dispatching on an action field; deletion is always an update-with-status
// so the sheet keeps its audit trail.
package appsscript

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bfall/sawshift/internal/config"
	"github.com/bfall/sawshift/internal/domain/models"
)

const (
	actionSaveShift  = "saveShift"
	actionUpdate     = "updateShift"
	actionSoftDelete = "softDeleteShift"

	statusOK = "ok"
)

// Client posts shift mutations to the Apps Script webhook.
type Client struct {
	httpClient *resty.Client
	url        string
	token      string
}

// NewClient builds a webhook client from configuration. Returns nil when no
// URL is configured; the ledger treats a nil remote as "no collaborator".
func NewClient(cfg config.WebhookConfig) *Client {
	if cfg.URL == "" {
		return nil
	}

	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(20 * time.Second)

	return &Client{
		httpClient: restyClient,
		url:        strings.TrimSuffix(cfg.URL, "/"),
		token:      cfg.Token,
	}
}

type webhookRequest struct {
	Action  string               `json:"action"`
	Token   string               `json:"token,omitempty"`
	BoardID string               `json:"board_id"`
	Entry   *models.HistoryEntry `json:"entry,omitempty"`
}

type webhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SaveShift creates or overwrites the remote record for the entry's board
// id. The script keys rows by board id, so a retried save stays idempotent.
func (c *Client) SaveShift(ctx context.Context, entry models.HistoryEntry) error {
	return c.post(ctx, webhookRequest{Action: actionSaveShift, BoardID: entry.BoardID, Entry: &entry})
}

// UpdateShift updates the product, earnings and yield fields of an existing
// remote record.
func (c *Client) UpdateShift(ctx context.Context, entry models.HistoryEntry) error {
	return c.post(ctx, webhookRequest{Action: actionUpdate, BoardID: entry.BoardID, Entry: &entry})
}

// SoftDeleteShift marks the remote record deleted without removing it.
func (c *Client) SoftDeleteShift(ctx context.Context, boardID string) error {
	return c.post(ctx, webhookRequest{Action: actionSoftDelete, BoardID: boardID})
}

func (c *Client) post(ctx context.Context, req webhookRequest) error {
	req.Token = c.token

	result := new(webhookResponse)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(result).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("call apps script webhook: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("apps script webhook error: code=%d, body=%s", resp.StatusCode(), resp.String())
	}

	if result.Status != statusOK {
		return fmt.Errorf("apps script rejected %s: %s", req.Action, result.Message)
	}

	return nil
}
