// Package ratingapi is the HTTP client for the age-rating analysis service.
package ratingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kiranshivaraju/agerating/pkg/models"
)

// Sentinel errors for analysis service failures.
var (
	ErrServiceUnreachable = errors.New("analysis service unreachable")
	ErrServiceTimeout     = errors.New("analysis service timeout")
	ErrServiceError       = errors.New("analysis service error")
	ErrMalformedResponse  = errors.New("malformed analysis service response")
)

// UploadField is the multipart form field the service reads the file from.
const UploadField = "file"

// maxErrorBody bounds how much of a non-2xx body is kept in the error message.
const maxErrorBody = 512

// Client is the interface for talking to the analysis service.
type Client interface {
	Upload(ctx context.Context, filename string, body io.Reader) (string, error)
	Result(ctx context.Context, taskID string) (*models.AnalysisJob, error)
}

// HTTPClient implements Client over the service's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new analysis service client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Upload sends the file as multipart field "file" to POST /upload and returns the task id.
func (c *HTTPClient) Upload(ctx context.Context, filename string, body io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadField, filename)
	if err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return "", fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", classifyError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var uploadResp uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("%w: decoding upload response: %v", ErrMalformedResponse, err)
	}
	if uploadResp.TaskID == "" {
		return "", fmt.Errorf("%w: upload response has no task_id", ErrMalformedResponse)
	}

	return uploadResp.TaskID, nil
}

// Result fetches one status snapshot from GET /result/{task_id}.
func (c *HTTPClient) Result(ctx context.Context, taskID string) (*models.AnalysisJob, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task id is required")
	}
	u := fmt.Sprintf("%s/result/%s", c.baseURL, url.PathEscape(taskID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var job models.AnalysisJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("%w: decoding result response: %v", ErrMalformedResponse, err)
	}
	if job.Status == "" {
		return nil, fmt.Errorf("%w: result response has no status", ErrMalformedResponse)
	}
	job.TaskID = taskID
	if job.Result != nil {
		warnUnstructured(taskID, job.Result)
	}

	return &job, nil
}

// warnUnstructured logs result content the checklist cannot show as-is.
func warnUnstructured(taskID string, r *models.AnalysisResult) {
	if r.Raw != "" {
		slog.Warn("service returned an unstructured result", "task_id", taskID, "raw_bytes", len(r.Raw))
	}
	for category, e := range r.ParentsGuide {
		if e.Severity != "" && !e.Severity.Known() {
			slog.Warn("unrecognized severity", "task_id", taskID, "category", category, "severity", e.Severity)
		}
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if detail := strings.TrimSpace(string(body)); detail != "" {
		return fmt.Errorf("%w: status %d: %s", ErrServiceError, resp.StatusCode, detail)
	}
	return fmt.Errorf("%w: status %d", ErrServiceError, resp.StatusCode)
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrServiceTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrServiceTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrServiceUnreachable, err)
}

type uploadResponse struct {
	TaskID string `json:"task_id"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
