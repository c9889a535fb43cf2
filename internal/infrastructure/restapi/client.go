// Package restapi is the HTTP client for the ticket REST API. It performs
// raw calls only; caching and invalidation live in the gateway package.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orris-inc/kanban/internal/domain/ticket"
	"github.com/orris-inc/kanban/internal/shared/constants"
	appErrors "github.com/orris-inc/kanban/internal/shared/errors"
	"github.com/orris-inc/kanban/internal/shared/logger"
	"github.com/orris-inc/kanban/internal/shared/utils/logutil"
)

const maxErrorBody = 512

// Client is the ticket API client.
type Client struct {
	baseURL    *url.URL
	userAgent  string
	httpClient *http.Client
	logger     logger.Interface
}

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(client *Client) {
		client.userAgent = ua
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Interface) Option {
	return func(client *Client) {
		client.logger = l
	}
}

// NewClient creates a new ticket API client.
//
// Parameters:
//   - baseURL: The API root (e.g., "http://localhost:8080/api/")
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}

	c := &Client{
		baseURL:   u,
		userAgent: constants.DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListTickets retrieves every ticket.
func (c *Client) ListTickets(ctx context.Context) ([]ticket.Ticket, error) {
	var tickets []ticket.Ticket
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("tickets"), nil, &tickets); err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// GetTicket retrieves a single ticket.
func (c *Client) GetTicket(ctx context.Context, id ticket.ID) (*ticket.Ticket, error) {
	var t ticket.Ticket
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("tickets", id.String()), nil, &t); err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}
	return &t, nil
}

// CreateTicket creates a ticket; the server assigns its ID.
func (c *Client) CreateTicket(ctx context.Context, in ticket.TicketInput) (*ticket.Ticket, error) {
	var t ticket.Ticket
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("tickets"), in, &t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	return &t, nil
}

// UpdateTicket replaces the ticket's fields.
func (c *Client) UpdateTicket(ctx context.Context, id ticket.ID, in ticket.TicketInput) (*ticket.Ticket, error) {
	var t ticket.Ticket
	if err := c.doJSON(ctx, http.MethodPut, c.endpoint("tickets", id.String()), in, &t); err != nil {
		return nil, fmt.Errorf("update ticket %s: %w", id, err)
	}
	if t.ID.IsZero() {
		t.ID = id
	}
	return &t, nil
}

// DeleteTicket deletes a ticket. A body-less 204 counts as success.
func (c *Client) DeleteTicket(ctx context.Context, id ticket.ID) (*ticket.DeleteResult, error) {
	result := ticket.DeleteResult{Success: true, ID: id}
	if err := c.doJSON(ctx, http.MethodDelete, c.endpoint("tickets", id.String()), nil, &result); err != nil {
		return nil, fmt.Errorf("delete ticket %s: %w", id, err)
	}
	if result.ID.IsZero() {
		result.ID = id
	}
	return &result, nil
}

// ListComments retrieves the comments of a ticket.
func (c *Client) ListComments(ctx context.Context, ticketID ticket.ID) ([]ticket.Comment, error) {
	var comments []ticket.Comment
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("tickets", ticketID.String(), "comments"), nil, &comments); err != nil {
		return nil, fmt.Errorf("list comments of ticket %s: %w", ticketID, err)
	}
	return comments, nil
}

// AddComment appends a comment to a ticket.
func (c *Client) AddComment(ctx context.Context, ticketID ticket.ID, in ticket.CommentInput) (*ticket.Comment, error) {
	var comment ticket.Comment
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("tickets", ticketID.String(), "comments"), in, &comment); err != nil {
		return nil, fmt.Errorf("add comment to ticket %s: %w", ticketID, err)
	}
	return &comment, nil
}

// ListActivities retrieves the activity log of a ticket.
func (c *Client) ListActivities(ctx context.Context, ticketID ticket.ID) ([]ticket.Activity, error) {
	var activities []ticket.Activity
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("tickets", ticketID.String(), "activities"), nil, &activities); err != nil {
		return nil, fmt.Errorf("list activities of ticket %s: %w", ticketID, err)
	}
	return activities, nil
}

// ListAttachments retrieves the attachments of a ticket.
func (c *Client) ListAttachments(ctx context.Context, ticketID ticket.ID) ([]ticket.Attachment, error) {
	var attachments []ticket.Attachment
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("tickets", ticketID.String(), "attachments"), nil, &attachments); err != nil {
		return nil, fmt.Errorf("list attachments of ticket %s: %w", ticketID, err)
	}
	return attachments, nil
}

// UploadAttachment sends content as a multipart "file" part.
func (c *Client) UploadAttachment(ctx context.Context, ticketID ticket.ID, filename string, content io.Reader) (*ticket.Attachment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("upload attachment: create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("upload attachment: read content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("upload attachment: close form: %w", err)
	}

	var attachment ticket.Attachment
	u := c.endpoint("tickets", ticketID.String(), "attachments")
	if err := c.do(ctx, http.MethodPost, u, &buf, mw.FormDataContentType(), &attachment); err != nil {
		return nil, fmt.Errorf("upload attachment to ticket %s: %w", ticketID, err)
	}
	return &attachment, nil
}

// DeleteAttachment removes an attachment.
func (c *Client) DeleteAttachment(ctx context.Context, attachmentID ticket.ID) error {
	if err := c.doJSON(ctx, http.MethodDelete, c.endpoint("attachments", attachmentID.String()), nil, nil); err != nil {
		return fmt.Errorf("delete attachment %s: %w", attachmentID, err)
	}
	return nil
}

func (c *Client) endpoint(segments ...string) string {
	return c.baseURL.JoinPath(segments...).String()
}

// doJSON marshals body as JSON (when non-nil) and decodes the response into result.
func (c *Client) doJSON(ctx context.Context, method, u string, body any, result any) error {
	var reqBody io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
		contentType = constants.ContentTypeJSON
	}
	return c.do(ctx, method, u, reqBody, contentType, result)
}

// do performs an HTTP request and decodes the response.
func (c *Client) do(ctx context.Context, method, u string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	req.Header.Set(constants.HeaderUserAgent, c.userAgent)
	req.Header.Set(constants.HeaderXRequestID, requestID)
	if contentType != "" {
		req.Header.Set(constants.HeaderContentType, contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debugw("request failed", "method", method, "url", u, "request_id", requestID, "error", err)
		return appErrors.NewNetworkError("send request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.NewNetworkError("read response", err)
	}

	c.logger.Debugw("request completed",
		"method", method,
		"url", u,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return appErrors.NewServerError(resp.StatusCode, http.StatusText(resp.StatusCode), serverMessage(respBody))
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// serverMessage extracts {"error": "..."} from an error body, falling back
// to the raw body.
func serverMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return logutil.TruncateForLog(strings.TrimSpace(string(body)), maxErrorBody)
}
