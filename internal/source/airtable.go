package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kwsong/biodigitalviz/internal/config"
	"github.com/kwsong/biodigitalviz/internal/models"
)

const (
	DEFAULT_AIRTABLE_URL = "https://api.airtable.com"
	AIRTABLE_API_VERSION = "v0"
)

// Column names in the systems table.
const (
	FieldName    = "Project Title"
	FieldAuthor  = "Author(s)/Creator(s)"
	FieldImgName = "Image Link"
	FieldYear    = "Year"
	FieldURL     = "Website Link"
)

type AirtableClient struct {
	HTTPClient  http.Client
	APIURL      string
	APIToken    string
	BaseID      string
	TableID     string
	Limiter     *rate.Limiter
	MaxRetries  int
	BaseBackoff time.Duration
}

type AirtableRecord struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type ListResponse struct {
	Records []AirtableRecord `json:"records"`
	Offset  string           `json:"offset"`
}

func NewAirtableClient(cfg config.AirtableConfig) *AirtableClient {
	client := AirtableClient{
		HTTPClient:  http.Client{Timeout: cfg.Timeout},
		APIURL:      DEFAULT_AIRTABLE_URL,
		APIToken:    cfg.APIToken,
		BaseID:      cfg.BaseID,
		TableID:     cfg.TableID,
		Limiter:     rate.NewLimiter(rate.Limit(cfg.Limit), max(cfg.Burst, 1)),
		MaxRetries:  cfg.MaxRetries,
		BaseBackoff: cfg.BaseBackoff,
	}
	return &client
}

// ListRecords returns every record in the table, following pagination.
func (c *AirtableClient) ListRecords(ctx context.Context) ([]models.Record, error) {
	var records []models.Record
	offset := ""
	for {
		page, err := c.listPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		for _, r := range page.Records {
			records = append(records, r.Record())
		}
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

func (c *AirtableClient) listPage(ctx context.Context, offset string) (*ListResponse, error) {
	u := fmt.Sprintf("%s/%s/%s/%s", c.APIURL, AIRTABLE_API_VERSION,
		url.PathEscape(c.BaseID), url.PathEscape(c.TableID))
	if offset != "" {
		u += "?offset=" + url.QueryEscape(offset)
	}

	resp, err := c.getHTTP(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("error listing airtable records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("airtable returned status %d", resp.StatusCode)
	}

	var APIResponse ListResponse
	if err = json.NewDecoder(resp.Body).Decode(&APIResponse); err != nil {
		return nil, fmt.Errorf("error decoding airtable response: %w", err)
	}

	return &APIResponse, nil
}

// Record maps the table's columns onto a models.Record.
func (r AirtableRecord) Record() models.Record {
	return models.Record{
		Name:    fieldString(r.Fields[FieldName]),
		Year:    models.Year(fieldString(r.Fields[FieldYear])),
		ImgName: fieldString(r.Fields[FieldImgName]),
		Author:  fieldString(r.Fields[FieldAuthor]),
		URL:     fieldString(r.Fields[FieldURL]),
	}
}

func fieldString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := fieldString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func (c *AirtableClient) getHTTP(ctx context.Context, url string) (*http.Response, error) {
	for attempt := 0; attempt < c.MaxRetries; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("error creating http request: %w", err)
		}

		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.APIToken))
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error making http request: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		backoff := c.BaseBackoff << attempt
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("exceeded %d retries due to rate limiting", c.MaxRetries)
}
