package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

// maxContentSize bounds gateway reads; campaign metadata is a few KB.
const maxContentSize = 4 << 20

// PinataProvider pins content through the Pinata API and reads it back
// through an IPFS gateway
type PinataProvider struct {
	httpClient *http.Client
	baseURL    string
	gatewayURL string
	apiKey     string
	secretKey  string
}

// pinResponse is the body Pinata returns for a successful pin
type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// NewPinataProvider creates a new Pinata provider
func NewPinataProvider(baseURL, gatewayURL, apiKey, secretKey string, timeout time.Duration) *PinataProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PinataProvider{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		secretKey:  secretKey,
	}
}

// Get fetches raw content from the gateway
func (p *PinataProvider) Get(ctx context.Context, cid string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL(cid), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content %s: %w", cid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrContentNotFound, cid)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("IPFS gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read content %s: %w", cid, err)
	}
	return data, nil
}

// PutJSON pins a JSON document and returns its content address
func (p *PinataProvider) PutJSON(ctx context.Context, v interface{}) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"pinataContent": v,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON content: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	return p.pin(req)
}

// PutFile pins a file as multipart upload and returns its content address
func (p *PinataProvider) PutFile(ctx context.Context, name string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return p.pin(req)
}

func (p *PinataProvider) pin(req *http.Request) (string, error) {
	p.authorize(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to pin content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("Pinata API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode Pinata response: %w", err)
	}
	if result.IpfsHash == "" {
		return "", fmt.Errorf("Pinata response missing IpfsHash")
	}

	logger.Info("Content pinned to IPFS",
		zap.String("cid", result.IpfsHash),
		zap.Int64("size", result.PinSize),
	)
	return result.IpfsHash, nil
}

// URL returns the gateway locator for cid
func (p *PinataProvider) URL(cid string) string {
	return ResolveURL(p.gatewayURL, cid)
}

// HealthCheck verifies the API credentials
func (p *PinataProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/data/testAuthentication", nil)
	if err != nil {
		return err
	}
	p.authorize(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Pinata unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Pinata authentication failed with status %d", resp.StatusCode)
	}
	return nil
}

func (p *PinataProvider) authorize(req *http.Request) {
	req.Header.Set("pinata_api_key", p.apiKey)
	req.Header.Set("pinata_secret_api_key", p.secretKey)
}
