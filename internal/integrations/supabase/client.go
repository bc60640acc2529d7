package supabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"imsystem/pkg/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultTable = "items"

	restPath = "/rest/v1/"
)

var ErrNotConfigured = errors.New("supabase url and key are required")

type Config struct {
	URL     string
	Key     string
	Table   string
	Timeout time.Duration
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Client reads inventory rows through the PostgREST interface of a
// Supabase project.
type Client struct {
	httpClient *resty.Client
	table      string
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("apikey", cfg.Key).
		SetAuthToken(cfg.Key).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		table:      cfg.Table,
		logger:     logger,
	}, nil
}

// ListRecords selects every column of the configured table for rows in the
// inclusive range [from, to].
func (c *Client) ListRecords(ctx context.Context, from, to int) ([]models.Record, error) {
	if from < 0 || to < from {
		return nil, fmt.Errorf("invalid record range %d-%d", from, to)
	}

	var records []models.Record
	var failure apiError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetHeader("Range-Unit", "items").
		SetHeader("Range", fmt.Sprintf("%d-%d", from, to)).
		SetResult(&records).
		SetError(&failure).
		Get(restPath + c.table)
	if err != nil {
		return nil, fmt.Errorf("failed to call supabase: %w", err)
	}

	if resp.IsError() {
		c.logger.Error("Supabase returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("code", failure.Code),
			zap.String("message", failure.Message),
		)
		if failure.Message != "" {
			return nil, fmt.Errorf("supabase error: %s (status: %d)", failure.Message, resp.StatusCode())
		}
		return nil, fmt.Errorf("supabase error: status %d", resp.StatusCode())
	}

	if records == nil {
		records = []models.Record{}
	}

	c.logger.Debug("Fetched inventory rows from supabase",
		zap.Int("rows", len(records)),
		zap.String("content_range", resp.Header().Get("Content-Range")),
	)

	return records, nil
}
