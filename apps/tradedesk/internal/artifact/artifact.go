// Package artifact handles off-chain document payloads: a deterministic
// content hash computed before upload, and the upload itself to a
// web3.storage-compatible endpoint. The on-chain record carries the hash so
// the artifact can be verified independently of the storage provider.
package artifact

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Hash returns the sha256 digest of the payload as a fixed-length value
// suitable for the registry's bytes32 slot.
func Hash(payload []byte) common.Hash {
	return common.Hash(sha256.Sum256(payload))
}

// NormalizeURI turns a bare content identifier into an ipfs:// URI.
// Already-prefixed URIs pass through unchanged.
func NormalizeURI(cid string) string {
	cid = strings.TrimSpace(cid)
	if strings.HasPrefix(cid, "ipfs://") {
		return cid
	}
	return "ipfs://" + cid
}

// Store is the upload client for the off-chain artifact service.
type Store struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *zap.Logger
}

func NewStore(endpoint, token string, logger *zap.Logger) *Store {
	return &Store{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
	}
}

// CanUpload reports whether direct uploads are configured; without a token
// the operator must supply a content identifier instead.
func (s *Store) CanUpload() bool {
	return s.token != ""
}

// Upload posts the payload and returns its ipfs:// URI.
func (s *Store) Upload(ctx context.Context, name string, payload []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return "", fmt.Errorf("failed to write upload payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("upload failed: %d %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var result struct {
		CID string `json:"cid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.CID == "" {
		return "", fmt.Errorf("upload response carried no content identifier")
	}

	s.logger.Info("Uploaded artifact",
		zap.String("name", name),
		zap.String("cid", result.CID),
		zap.Int("size", len(payload)))

	return NormalizeURI(result.CID), nil
}
