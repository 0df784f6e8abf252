package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/octobees/prospecting-crm/api/internal/dto"
)

// ErrWorker wraps failures reported by the worker itself.
var ErrWorker = errors.New("worker error")

const generateContactsPath = "/contacts/generate"

type requestIDKey struct{}

// WithRequestID attaches the inbound request id so it is forwarded to the worker.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestIDFrom(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey{}).(string)
	return rid
}

// Client posts JSON payloads to the contact-generation worker.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient builds a worker client. A nil http client is replaced by an
// ID-token client for the worker audience, falling back to a plain client
// outside Google Cloud.
func NewClient(client *http.Client, baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("worker base url must not be empty")
	}
	if client == nil {
		idc, err := idtoken.NewClient(context.Background(), baseURL)
		if err != nil {
			client = &http.Client{Timeout: 30 * time.Second}
		} else {
			client = idc
		}
	}
	return &Client{client: client, baseURL: baseURL}, nil
}

// PostJSON posts payload to path and decodes the "data" member of the reply into out.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal worker payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create worker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if rid := requestIDFrom(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("worker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s", ErrWorker, extractError(resp.Body))
	}

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode worker response: %w", err)
	}
	if envelope.Error != "" {
		return fmt.Errorf("%w: %s", ErrWorker, envelope.Error)
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode worker data: %w", err)
	}
	return nil
}

// GenerateContacts asks the worker for up to req.Count contacts matching one persona.
func (c *Client) GenerateContacts(ctx context.Context, req dto.ContactGenerationRequest) ([]dto.GeneratedContact, error) {
	var data struct {
		Contacts []dto.GeneratedContact `json:"contacts"`
	}
	if err := c.PostJSON(ctx, generateContactsPath, req, &data); err != nil {
		return nil, err
	}
	if data.Contacts == nil {
		return []dto.GeneratedContact{}, nil
	}
	return data.Contacts, nil
}

func extractError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return "worker returned an error"
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}
