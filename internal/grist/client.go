// Package grist is a minimal REST client for a self-hosted Grist server,
// covering the handful of endpoints the sync pipeline needs: column
// introspection, sorted record queries and bulk record creation.
package grist

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is the concrete TableStore implementation backed by the Grist
// records API.
type Client struct {
	baseHost  string
	docID     string
	tableName string
	http      *resty.Client
}

// NewClient creates a Client for one document/table pair. The API key is sent
// as a bearer token on every request.
func NewClient(baseHost, docID, tableName, apiKey string) *Client {
	httpClient := resty.New().
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(2 * time.Minute)

	return &Client{
		baseHost:  baseHost,
		docID:     docID,
		tableName: tableName,
		http:      httpClient,
	}
}

func (c *Client) docURL() string {
	return fmt.Sprintf("%s/api/docs/%s", c.baseHost, c.docID)
}

func (c *Client) tableURL() string {
	return fmt.Sprintf("%s/tables/%s", c.docURL(), c.tableName)
}

// Columns fetches the destination table structure.
func (c *Client) Columns(ctx context.Context) ([]Column, error) {
	var out struct {
		Columns []Column `json:"columns"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(c.tableURL() + "/columns")
	if err != nil {
		return nil, fmt.Errorf("Columns: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("Columns", resp)
	}

	return out.Columns, nil
}

// Records queries up to limit rows ordered by sortColumn. With descending
// set, the sort column is prefixed with "-" per the Grist sort syntax.
func (c *Client) Records(ctx context.Context, sortColumn string, descending bool, limit int) ([]Record, error) {
	sort := sortColumn
	if descending {
		sort = "-" + sortColumn
	}

	var out struct {
		Records []Record `json:"records"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("sort", sort).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&out).
		Get(c.tableURL() + "/records")
	if err != nil {
		return nil, fmt.Errorf("Records: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("Records", resp)
	}

	return out.Records, nil
}

// BulkInsert creates all given rows in one call. A partial failure is
// indistinguishable from a total one; callers must treat any error as "the
// batch did not land".
func (c *Client) BulkInsert(ctx context.Context, records []RecordFields) error {
	if len(records) == 0 {
		return nil
	}

	type recordEnvelope struct {
		Fields RecordFields `json:"fields"`
	}
	payload := struct {
		Records []recordEnvelope `json:"records"`
	}{}
	for _, r := range records {
		payload.Records = append(payload.Records, recordEnvelope{Fields: r})
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.tableURL() + "/records")
	if err != nil {
		return fmt.Errorf("BulkInsert: %w", err)
	}
	if resp.IsError() {
		return apiError("BulkInsert", resp)
	}

	return nil
}

// Tables lists the table ids available in the document.
func (c *Client) Tables(ctx context.Context) ([]string, error) {
	var out struct {
		Tables []struct {
			ID string `json:"id"`
		} `json:"tables"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(c.docURL() + "/tables")
	if err != nil {
		return nil, fmt.Errorf("Tables: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("Tables", resp)
	}

	ids := make([]string, 0, len(out.Tables))
	for _, t := range out.Tables {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// CheckAccess verifies the document is reachable and the configured table can
// be read, so connection problems surface before any sync work starts.
func (c *Client) CheckAccess(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get(c.docURL())
	if err != nil {
		return fmt.Errorf("CheckAccess: document: %w", err)
	}
	if resp.IsError() {
		return apiError("CheckAccess: document", resp)
	}

	resp, err = c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", "1").
		Get(c.tableURL() + "/records")
	if err != nil {
		return fmt.Errorf("CheckAccess: table: %w", err)
	}
	if resp.IsError() {
		return apiError("CheckAccess: table", resp)
	}

	return nil
}

func apiError(op string, resp *resty.Response) error {
	return fmt.Errorf("%s: grist api status %d: %s", op, resp.StatusCode(), resp.String())
}
