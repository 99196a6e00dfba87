// Package knowledge manages robot knowledge documents held by the retrieval service.
package knowledge

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

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds list and delete requests; uploads get twice as long.
const DefaultTimeout = 30 * time.Second

// Document is an uploaded knowledge file. Storage and indexing belong to the service.
type Document struct {
	ID         string `json:"_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
	UploadedAt string `json:"uploaded_at"`
	FullText   string `json:"full_text,omitempty"`
}

var uploadedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UploadedTime parses UploadedAt; the zero time means unknown
func (d Document) UploadedTime() time.Time {
	for _, layout := range uploadedLayouts {
		if t, err := time.Parse(layout, d.UploadedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Upload is a document to add to a robot's knowledge
type Upload struct {
	UserID   string
	RobotID  string
	Filename string
	Data     []byte
}

// Client talks to the knowledge endpoint
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a client for the knowledge endpoint at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// List returns the documents of userID, narrowed to robotID when set
func (c *Client) List(ctx context.Context, userID, robotID string) ([]Document, error) {
	q := url.Values{}
	if userID != "" {
		q.Set("user_id", userID)
	}
	if robotID != "" {
		q.Set("robot_id", robotID)
	}
	endpoint := c.baseURL
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var docs []Document
	if err := c.do(ctx, c.timeout, http.MethodGet, endpoint, nil, "", &docs); err != nil {
		return nil, fmt.Errorf("failed to list knowledge: %w", err)
	}
	return docs, nil
}

// Upload checks the document locally and posts it as multipart form data
func (c *Client) Upload(ctx context.Context, up Upload) (*PDFInfo, error) {
	info, err := CheckUpload(up.Filename, up.Data)
	if err != nil {
		return nil, err
	}

	body, contentType, err := uploadForm(up)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	if err := c.do(ctx, 2*c.timeout, http.MethodPost, c.baseURL, body, contentType, nil); err != nil {
		return nil, fmt.Errorf("failed to upload knowledge: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"filename": up.Filename,
		"pages":    info.PageCount,
		"robot_id": up.RobotID,
	}).Info("Uploaded knowledge document")
	return info, nil
}

// uploadForm encodes up as multipart form data; robot_id is omitted when empty
func uploadForm(up Upload) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	fields := [][2]string{{"user_id", up.UserID}}
	if up.RobotID != "" {
		fields = append(fields, [2]string{"robot_id", up.RobotID})
	}
	fields = append(fields, [2]string{"filename", up.Filename})
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write %s: %w", f[0], err)
		}
	}

	part, err := form.CreateFormFile("file", up.Filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, "", err
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return &body, form.FormDataContentType(), nil
}

// Delete removes a document by id
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	endpoint := c.baseURL + "/" + url.PathEscape(id)
	if err := c.do(ctx, c.timeout, http.MethodDelete, endpoint, nil, "", nil); err != nil {
		return fmt.Errorf("failed to delete knowledge: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, timeout time.Duration, method, endpoint string, body io.Reader, contentType string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s", e.Error)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
