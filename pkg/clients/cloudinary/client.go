// Package cloudinary is a minimal signed-upload client for the Cloudinary
// image API. Items store only the returned URL and public id; nothing else
// about the asset is interpreted.
package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"biostorex/internal/config"
)

// Client exposes the image storage operations used by the application.
type Client interface {
	Upload(ctx context.Context, fileName string, content io.Reader) (*UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}

// UploadResult carries the stored asset's identifiers.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	apiKey     string
	apiSecret  string
}

// NewClient builds a Cloudinary API client from the provided configuration.
func NewClient(cfg config.CloudinaryConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/v1_1/%s", base, cfg.CloudName)).
		SetTimeout(30 * time.Second)

	return &APIClient{
		httpClient: restyClient,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
	}
}

// apiError represents a Cloudinary error payload.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the image through the signed upload endpoint.
func (c *APIClient) Upload(ctx context.Context, fileName string, content io.Reader) (*UploadResult, error) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	result := new(UploadResult)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", fileName, content).
		SetFormData(map[string]string{
			"api_key":   c.apiKey,
			"timestamp": timestamp,
			"signature": c.sign("timestamp=" + timestamp),
		}).
		SetResult(result).
		SetError(apiErr).
		Post("/image/upload")
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("cloudinary api error: code=%d, message=%s", resp.StatusCode(), apiErr.Error.Message)
	}

	return result, nil
}

// Destroy removes a previously uploaded asset.
func (c *APIClient) Destroy(ctx context.Context, publicID string) error {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"public_id": publicID,
			"api_key":   c.apiKey,
			"timestamp": timestamp,
			"signature": c.sign(fmt.Sprintf("public_id=%s&timestamp=%s", publicID, timestamp)),
		}).
		SetError(apiErr).
		Post("/image/destroy")
	if err != nil {
		return fmt.Errorf("destroy image: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("cloudinary api error: code=%d, message=%s", resp.StatusCode(), apiErr.Error.Message)
	}

	return nil
}

// sign produces the request signature per Cloudinary's signing scheme: the
// sorted parameter string followed by the API secret, SHA-1 hashed.
func (c *APIClient) sign(params string) string {
	digest := sha1.Sum([]byte(params + c.apiSecret))
	return hex.EncodeToString(digest[:])
}
