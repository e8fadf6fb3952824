package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/auscult/internal/domain/report"
	"github.com/okian/auscult/internal/domain/types"
)

// Client talks to the auscult HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// statusError carries the status and the decoded error code of a failed call.
type statusError struct {
	status     int
	code       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrUnexpectedStatus, e.status, e.code)
}

func (e *statusError) Unwrap() error { return ErrUnexpectedStatus }

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (types.ServiceStats, error) {
	var st types.ServiceStats
	err := c.do(ctx, http.MethodGet, "/stats", nil, http.StatusOK, &st)
	return st, err
}

// PostEvents sends one batch of raw records to the session.
func (c *Client) PostEvents(ctx context.Context, sessionID string, records []json.RawMessage) (types.IngestAck, error) {
	var ack types.IngestAck
	body, err := json.Marshal(records)
	if err != nil {
		return ack, fmt.Errorf("marshal batch: %w", err)
	}
	err = c.do(ctx, http.MethodPost, sessionPath(sessionID, "events"), body, http.StatusAccepted, &ack)
	return ack, err
}

// Session fetches GET /sessions/{id}.
func (c *Client) Session(ctx context.Context, sessionID string) (types.SessionInfo, error) {
	var info types.SessionInfo
	err := c.do(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, http.StatusOK, &info)
	return info, err
}

// Flush releases the session's held events and returns how many.
func (c *Client) Flush(ctx context.Context, sessionID string) (int, error) {
	var out struct {
		Released int `json:"released"`
	}
	err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "flush"), nil, http.StatusOK, &out)
	return out.Released, err
}

// Report fetches the assembled report.
func (c *Client) Report(ctx context.Context, sessionID string, includeEvents bool) (report.Report, error) {
	var rep report.Report
	path := sessionPath(sessionID, "report")
	if includeEvents {
		path += "?events=true"
	}
	err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &rep)
	return rep, err
}

func sessionPath(id, sub string) string {
	p := "/sessions/" + url.PathEscape(id)
	if sub != "" {
		p += "/" + sub
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, want int, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode != want {
		se := &statusError{status: resp.StatusCode}
		var apiErr struct {
			Code string `json:"code"`
		}
		if json.Unmarshal(data, &apiErr) == nil {
			se.code = apiErr.Code
		}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			se.retryAfter = time.Duration(secs) * time.Second
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
