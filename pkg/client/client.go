// Package client provides a Go client for the TernDB HTTP API.
//
// It offers a type-safe way to perform all major operations:
//   - Asserting and retracting triples.
//   - Pattern matching and property path queries.
//   - System administration (snapshot, AOF rewrite, stats, tasks).
//
// The client handles HTTP communication, JSON serialization and
// standardized error handling. Path expressions are built with the
// PathSpec helpers (Pred, Seq, Alt, Inv, Not, Star, Plus, Opt, Times).
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIError represents an error returned by the TernDB API (status >= 400).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// Task represents an asynchronous operation on the TernDB server.
type Task struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	ProgressMessage string `json:"progress_message,omitempty"`
	Error           string `json:"error,omitempty"`

	client *Client // for polling
}

// Refresh updates the task's status by querying the server.
func (t *Task) Refresh() error {
	if t.client == nil {
		return fmt.Errorf("client is not associated with the task")
	}
	updated, err := t.client.GetTaskStatus(t.ID)
	if err != nil {
		return err
	}
	t.Status = updated.Status
	t.ProgressMessage = updated.ProgressMessage
	t.Error = updated.Error
	return nil
}

// Wait blocks until the task completes, polling at regular intervals.
func (t *Task) Wait(interval, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return fmt.Errorf("timeout exceeded while waiting for task %s", t.ID)
		case <-ticker.C:
			if err := t.Refresh(); err != nil {
				return err
			}
			switch t.Status {
			case "completed":
				return nil
			case "failed":
				return fmt.Errorf("task %s failed with error: %s", t.ID, t.Error)
			case "running", "started":
				// keep waiting
			default:
				return fmt.Errorf("unknown task status: %s", t.Status)
			}
		}
	}
}

// Client is the Go client for TernDB.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// New creates a new TernDB client. authToken may be empty when the server
// runs without authentication.
func New(host string, port int, authToken string) *Client {
	return &Client{
		baseURL:    fmt.Sprintf("http://%s:%d", host, port),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// jsonRequest executes one API request, handling serialization and error
// mapping.
func (c *Client) jsonRequest(method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		if json.Unmarshal(respBody, &errResp) == nil && errResp["error"] != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp["error"]}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return respBody, nil
}

// --- Triple Methods ---

// Assert adds a triple. It reports whether the triple was new.
func (c *Client) Assert(t Triple) (bool, error) {
	respBody, err := c.jsonRequest(http.MethodPost, "/triples/actions/assert", t)
	if err != nil {
		return false, err
	}
	var resp struct {
		Added bool `json:"added"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return false, fmt.Errorf("invalid JSON response for Assert: %w", err)
	}
	return resp.Added, nil
}

// Retract removes a triple. It reports whether the triple existed.
func (c *Client) Retract(t Triple) (bool, error) {
	respBody, err := c.jsonRequest(http.MethodPost, "/triples/actions/retract", t)
	if err != nil {
		return false, err
	}
	var resp struct {
		Existed bool `json:"existed"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return false, fmt.Errorf("invalid JSON response for Retract: %w", err)
	}
	return resp.Existed, nil
}

// Match returns triples matching the pattern. Nil terms are wildcards.
// limit <= 0 means the server default.
func (c *Client) Match(subject, predicate, object *Term, limit int) ([]Triple, error) {
	payload := map[string]any{}
	if subject != nil {
		payload["subject"] = subject
	}
	if predicate != nil {
		payload["predicate"] = predicate
	}
	if object != nil {
		payload["object"] = object
	}
	if limit > 0 {
		payload["limit"] = limit
	}

	respBody, err := c.jsonRequest(http.MethodPost, "/triples/actions/match", payload)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Results []Triple `json:"results"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for Match: %w", err)
	}
	return resp.Results, nil
}

// --- Query Methods ---

// PathQuery evaluates a property path. Nil subject/object are wildcards.
func (c *Client) PathQuery(path PathSpec, subject, object *Term, limit int) ([]Pair, error) {
	payload := map[string]any{"path": path}
	if subject != nil {
		payload["subject"] = subject
	}
	if object != nil {
		payload["object"] = object
	}
	if limit > 0 {
		payload["limit"] = limit
	}

	respBody, err := c.jsonRequest(http.MethodPost, "/query/path", payload)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Results []Pair `json:"results"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for PathQuery: %w", err)
	}
	return resp.Results, nil
}

// TopNodes returns the n most central nodes by PageRank.
func (c *Client) TopNodes(n int) ([]NodeScore, error) {
	respBody, err := c.jsonRequest(http.MethodGet, fmt.Sprintf("/query/top-nodes?n=%d", n), nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Nodes []NodeScore `json:"nodes"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for TopNodes: %w", err)
	}
	return resp.Nodes, nil
}

// --- Administration Methods ---

// Stats retrieves graph and persistence statistics.
func (c *Client) Stats() (*Stats, error) {
	respBody, err := c.jsonRequest(http.MethodGet, "/system/stats", nil)
	if err != nil {
		return nil, err
	}
	var stats Stats
	if err := json.Unmarshal(respBody, &stats); err != nil {
		return nil, fmt.Errorf("invalid JSON response for Stats: %w", err)
	}
	return &stats, nil
}

// Save triggers a synchronous snapshot to disk.
func (c *Client) Save() error {
	_, err := c.jsonRequest(http.MethodPost, "/system/save", nil)
	return err
}

// AOFRewrite triggers a log compaction and returns a Task to poll.
func (c *Client) AOFRewrite() (*Task, error) {
	respBody, err := c.jsonRequest(http.MethodPost, "/system/aof-rewrite", nil)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(respBody, &task); err != nil {
		return nil, fmt.Errorf("invalid JSON response for AOFRewrite: %w", err)
	}
	task.client = c
	return &task, nil
}

// GetTaskStatus retrieves the status of a long-running task.
func (c *Client) GetTaskStatus(taskID string) (*Task, error) {
	respBody, err := c.jsonRequest(http.MethodGet, "/system/tasks/"+taskID, nil)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(respBody, &task); err != nil {
		return nil, fmt.Errorf("invalid JSON response for GetTaskStatus: %w", err)
	}
	task.client = c
	return &task, nil
}
