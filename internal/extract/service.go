package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coi-cli/internal/model"
	"github.com/sells-group/coi-cli/internal/resilience"
)

// Service turns one certificate PDF into its policies, keyed by an
// extractor-assigned name.
type Service interface {
	Extract(ctx context.Context, pdfPath string) (map[string]model.Policy, error)
}

// Option configures an HTTPService.
type Option func(*HTTPService)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *HTTPService) {
		s.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPService) {
		if d > 0 {
			s.http.Timeout = d
		}
	}
}

// HTTPService calls a remote extraction endpoint.
type HTTPService struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPService creates a client for the extraction service at baseURL.
func NewHTTPService(baseURL, apiKey string, opts ...Option) *HTTPService {
	s := &HTTPService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type extractRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type extractResponse struct {
	Policies map[string]model.Policy `json:"policies"`
}

// Extract uploads the PDF and decodes the returned policies. 408, 429 and
// 5xx responses come back as resilience.TransientError.
func (s *HTTPService) Extract(ctx context.Context, pdfPath string) (map[string]model.Policy, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read %s", pdfPath)
	}

	body, err := json.Marshal(extractRequest{
		Filename: filepath.Base(pdfPath),
		Content:  base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/extract", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "extract: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "extract: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Transient(eris.Wrap(err, "extract: read response body"), resp.StatusCode)
	}
	if err := resilience.CheckStatus("extract: service", resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	var out extractResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, eris.Wrap(err, "extract: unmarshal response")
	}
	if out.Policies == nil {
		out.Policies = map[string]model.Policy{}
	}
	return out.Policies, nil
}
