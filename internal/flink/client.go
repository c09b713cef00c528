// Package flink provides the REST client for the remote streaming-SQL engine:
// statement submission, status queries, listing and stop requests.
package flink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// submitTimeout bounds one create-statement request.
	submitTimeout = 60 * time.Second
	// queryTimeout bounds status, list and stop requests.
	queryTimeout = 30 * time.Second
)

// SubmissionRejectedError reports a create-statement response that was neither
// success nor already-exists. It aborts the whole deployment.
type SubmissionRejectedError struct {
	Name       string
	StatusCode int
	Body       string
}

func (e *SubmissionRejectedError) Error() string {
	return fmt.Sprintf("statement %q rejected: status %d: %s", e.Name, e.StatusCode, e.Body)
}

// Client wraps the statement API for one organization/environment pair.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
}

// NewClient constructs a Client for the given base endpoint
// ({rest}/sql/v1/organizations/{org}/environments/{env}) and credentials.
func NewClient(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
	}
}

// Submit issues a create-statement request and classifies the response.
// Fresh creation returns the server-assigned handle; a 409 means the
// statement already exists and is treated as idempotent success with an
// unknown handle. Any other status is a SubmissionRejectedError.
func (c *Client) Submit(ctx context.Context, name, sql string, placement Placement) (SubmitOutcome, error) {
	payload := submitRequest{
		Name: name,
		Spec: statementSpec{
			Statement:     sql,
			ComputePoolID: placement.ComputePoolID,
			Properties: map[string]string{
				"sql.current-catalog":  placement.Catalog,
				"sql.current-database": placement.Database,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("marshal statement %q: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	status, respBody, err := c.do(ctx, http.MethodPost, c.baseURL+"/statements", body)
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("submit statement %q: %w", name, err)
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		var resp submitResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return SubmitOutcome{}, fmt.Errorf("parse submit response for %q: %w", name, err)
		}
		handle := resp.Name
		if handle == "" {
			handle = name
		}
		return SubmitOutcome{Handle: handle, Created: true}, nil
	case status == http.StatusConflict:
		return SubmitOutcome{}, nil
	default:
		return SubmitOutcome{}, &SubmissionRejectedError{Name: name, StatusCode: status, Body: string(respBody)}
	}
}

// Status queries one statement's lifecycle phase. A non-200 response is an
// error; the caller maps it to deployment failure.
func (c *Client) Status(ctx context.Context, handle string) (StatementStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	status, respBody, err := c.do(ctx, http.MethodGet, c.baseURL+"/statements/"+url.PathEscape(handle), nil)
	if err != nil {
		return StatementStatus{}, fmt.Errorf("query statement %q: %w", handle, err)
	}
	if status != http.StatusOK {
		return StatementStatus{}, fmt.Errorf("query statement %q: status %d: %s", handle, status, string(respBody))
	}

	var resp statusResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return StatementStatus{}, fmt.Errorf("parse status for %q: %w", handle, err)
	}
	return StatementStatus{Phase: ParsePhase(resp.Status.Phase), Detail: resp.Status.Detail}, nil
}

// List enumerates the environment's full statement collection. The server
// does not filter by run; callers must apply their own ownership predicate.
func (c *Client) List(ctx context.Context) ([]StatementInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	status, respBody, err := c.do(ctx, http.MethodGet, c.baseURL+"/v1/statements", nil)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list statements: status %d: %s", status, string(respBody))
	}

	var resp listResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parse statement listing: %w", err)
	}

	infos := make([]StatementInfo, 0, len(resp.Data))
	for _, entry := range resp.Data {
		infos = append(infos, StatementInfo{
			Handle: entry.StatementHandle,
			Status: entry.Status.Status,
		})
	}
	return infos, nil
}

// Stop requests termination of one statement. A 404 means the statement is
// already gone and is a no-op success.
func (c *Client) Stop(ctx context.Context, handle string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	status, respBody, err := c.do(ctx, http.MethodDelete, c.baseURL+"/v1/statements/"+url.PathEscape(handle), nil)
	if err != nil {
		return fmt.Errorf("stop statement %q: %w", handle, err)
	}
	if status == http.StatusOK || status == http.StatusAccepted || status == http.StatusNoContent || status == http.StatusNotFound {
		return nil
	}
	return fmt.Errorf("stop statement %q: status %d: %s", handle, status, string(respBody))
}

// do executes one authenticated request and returns status code and body.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
