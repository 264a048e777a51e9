// Package accord fetches mutual fund reference feeds from the Accord raw data API.
package accord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"myfi.backend/internal/domain/entities"
)

const (
	defaultBaseURL = "https://contentapi.accordwebservices.com/RawData"
	defaultTimeout = 60 * time.Second
	rawDataPath    = "/GetRawDataJSON"

	// DateLayout is the feed date format the API expects (ddmmyyyy)
	DateLayout = "02012006"
)

// Feed names one upstream table
type Feed struct {
	Filename string
	Section  string
}

var (
	FeedAmcMaster     = Feed{Filename: "Amc_mst", Section: "MFMaster"}
	FeedSchemeDetails = Feed{Filename: "Scheme_Details", Section: "MFMaster"}
	FeedSchemeClass   = Feed{Filename: "Sclass_mst", Section: "MFMaster"}
	FeedPlan          = Feed{Filename: "Plan_mst", Section: "MFMaster"}
	FeedSchemeMaster  = Feed{Filename: "Scheme_master", Section: "MFMaster"}
	FeedSchemeLoad    = Feed{Filename: "Schemeload", Section: "MFMaster"}
	FeedSip           = Feed{Filename: "Mf_sip", Section: "MFMaster"}
	FeedIsin          = Feed{Filename: "schemeisinmaster", Section: "MFMaster"}
	FeedSchemeAum     = Feed{Filename: "Scheme_paum", Section: "MFPortfolio"}
	FeedAbsReturn     = Feed{Filename: "Mf_abs_return", Section: "MFNav"}
	FeedRatios        = Feed{Filename: "MF_Ratios_DefaultBM", Section: "MFNav"}
	FeedNavHistory    = Feed{Filename: "Navhist", Section: "MFNav"}
	FeedExpenseRatio  = Feed{Filename: "Expenceratio", Section: "MFOther"}
)

// Client is an Accord raw data API client
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client against the production endpoint
func NewClient(token string, timeout time.Duration) *Client {
	return NewClientWithBaseURL(token, defaultBaseURL, timeout)
}

// NewClientWithBaseURL creates a client with a custom base URL (for testing)
func NewClientWithBaseURL(token, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FeedDate formats t the way the API expects
func FeedDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FetchFeed downloads one table for the given feed date
func (c *Client) FetchFeed(ctx context.Context, feed Feed, date string) (entities.RawBatch, error) {
	params := url.Values{}
	params.Set("filename", feed.Filename)
	params.Set("date", date)
	params.Set("section", feed.Section)
	params.Set("sub", "")
	params.Set("token", c.token)

	resp, err := c.doRequest(ctx, params)
	if err != nil {
		return entities.RawBatch{}, fmt.Errorf("%s: %w", feed.Filename, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return entities.RawBatch{}, fmt.Errorf("%s: failed to read response: %w", feed.Filename, err)
	}

	var batch entities.RawBatch
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&batch); err != nil {
		return entities.RawBatch{}, fmt.Errorf("%s: failed to unmarshal response: %w", feed.Filename, err)
	}
	return batch, nil
}

// FetchAmcs downloads the AMC master table
func (c *Client) FetchAmcs(ctx context.Context, date string) (entities.RawBatch, error) {
	return c.FetchFeed(ctx, FeedAmcMaster, date)
}

// FetchNavHistory downloads the NAV history table
func (c *Client) FetchNavHistory(ctx context.Context, date string) (entities.RawBatch, error) {
	return c.FetchFeed(ctx, FeedNavHistory, date)
}

// FetchSchemeTables downloads every table the scheme join needs. The first
// failing feed cancels the rest.
func (c *Client) FetchSchemeTables(ctx context.Context, date string) (entities.SchemeTables, error) {
	var tables entities.SchemeTables
	targets := []struct {
		feed Feed
		dst  *[]entities.RawRow
	}{
		{FeedSchemeDetails, &tables.Details},
		{FeedSchemeClass, &tables.Classes},
		{FeedSchemeAum, &tables.Aum},
		{FeedPlan, &tables.Plans},
		{FeedSchemeMaster, &tables.Risk},
		{FeedAbsReturn, &tables.Returns},
		{FeedSchemeLoad, &tables.ExitLoads},
		{FeedRatios, &tables.Ratios},
		{FeedSip, &tables.Sip},
		{FeedExpenseRatio, &tables.ExpenseRatio},
		{FeedIsin, &tables.Isin},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			batch, err := c.FetchFeed(gctx, target.feed, date)
			if err != nil {
				return err
			}
			*target.dst = batch.Table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return entities.SchemeTables{}, err
	}
	return tables, nil
}

func (c *Client) doRequest(ctx context.Context, params url.Values) (*http.Response, error) {
	reqURL := c.baseURL + rawDataPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", redactURLError(err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", redactURLError(err))
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return resp, nil
}

// redactURLError masks the API token in the URL that net/http and net/url
// put into their errors. The error chain is otherwise kept.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	urlErr.URL = redactToken(urlErr.URL)
	return err
}

func redactToken(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		// unparsable: drop everything after the path
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i] + "?REDACTED"
		}
		return raw
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
