// Package socrata fetches incident records from the datos.gov.co open-data
// portal and turns them into the raw table the pipeline consumes.
package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fenix-boyaca/fenix-cli/internal/fetcher"
	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

// Options configures the portal client.
type Options struct {
	BaseURL   string
	DatasetID string
	Limit     int
	AppToken  string
}

// Client queries one Socrata dataset over the SODA resource endpoint.
type Client struct {
	fetch fetcher.Fetcher
	opts  Options
}

// NewClient creates a Client. Zero option fields fall back to the Boyacá
// fire dataset defaults.
func NewClient(f fetcher.Fetcher, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.datos.gov.co"
	}
	if opts.DatasetID == "" {
		opts.DatasetID = "ryr5-rs2a"
	}
	if opts.Limit <= 0 {
		opts.Limit = 5000
	}
	return &Client{fetch: f, opts: opts}
}

// DatasetID returns the configured dataset identifier.
func (c *Client) DatasetID() string {
	return c.opts.DatasetID
}

// FetchRecords downloads the dataset and returns the raw string-keyed
// records in portal order.
func (c *Client) FetchRecords(ctx context.Context) ([]map[string]string, error) {
	q := url.Values{}
	q.Set("$limit", strconv.Itoa(c.opts.Limit))
	if c.opts.AppToken != "" {
		q.Set("$$app_token", c.opts.AppToken)
	}
	endpoint := fmt.Sprintf("%s/resource/%s.json?%s", c.opts.BaseURL, c.opts.DatasetID, q.Encode())

	body, err := c.fetch.Download(ctx, endpoint)
	if err != nil {
		return nil, eris.Wrap(err, "socrata: fetch dataset")
	}
	defer body.Close() //nolint:errcheck

	recCh, errCh := fetcher.DecodeJSONArray[map[string]any](ctx, body)

	var records []map[string]string
	for rec := range recCh {
		records = append(records, stringifyRecord(rec))
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "socrata: decode dataset")
	}

	zap.L().Info("dataset fetched",
		zap.String("dataset", c.opts.DatasetID),
		zap.Int("rows", len(records)),
	)
	return records, nil
}

// stringifyRecord flattens a decoded JSON record to string values. Nested
// values (Socrata location objects and the like) are dropped.
func stringifyRecord(rec map[string]any) map[string]string {
	out := make(map[string]string, len(rec))
	for k, v := range rec {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		}
	}
	return out
}

// DecodeRecords parses a persisted snapshot payload back into records.
func DecodeRecords(payload []byte) ([]map[string]string, error) {
	var records []map[string]string
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, eris.Wrap(err, "socrata: decode snapshot payload")
	}
	return records, nil
}

// EncodeRecords serializes records for snapshot persistence.
func EncodeRecords(records []map[string]string) ([]byte, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return nil, eris.Wrap(err, "socrata: encode snapshot payload")
	}
	return data, nil
}

// BuildTable assembles the raw table from fetched records: column names
// sorted, the report date parsed, and rows missing any present key column
// removed.
func BuildTable(records []map[string]string, sch *schema.Schema) *table.Table {
	var cols []string
	seen := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	// Record maps iterate in random order; sort for a stable column layout.
	sort.Strings(cols)

	t := table.New(cols...)
	for _, rec := range records {
		row := t.AppendEmptyRow()
		for k, v := range rec {
			t.SetCell(row, k, v)
		}
	}

	if t.HasColumn(sch.ReportColumn) {
		for r := range t.Len() {
			s, ok := table.AsString(t.Cell(r, sch.ReportColumn))
			if !ok {
				continue
			}
			if ts, ok := ParseTimestamp(s); ok {
				t.SetCell(r, sch.ReportColumn, ts)
			} else {
				t.SetCell(r, sch.ReportColumn, nil)
			}
		}
	}

	// Drop rows missing any key column that actually exists in this fetch.
	var present []string
	for _, k := range sch.KeyColumns {
		if t.HasColumn(k) {
			present = append(present, k)
		}
	}
	return t.Select(func(r int) bool {
		for _, k := range present {
			if t.Cell(r, k) == nil {
				return false
			}
		}
		return true
	})
}
