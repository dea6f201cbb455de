package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ratranqu/endstone/internal/logger"
)

// stagingFileMode is used for files written into the staging directory.
const stagingFileMode os.FileMode = 0o600

var errBadHTTPStatus = errors.New("unexpected http status")

// sourceReader remembers read errors so they can be told apart from write errors.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}

	return n, err
}

// download streams rawURL into dest and returns the hex SHA-256 of the body.
func (i *Installer) download(ctx context.Context, rawURL, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", network(fmt.Errorf("create download request: %w", err))
	}

	req.Header.Set("User-Agent", userAgent)

	response, err := i.client.Do(req)
	if err != nil {
		return "", network(fmt.Errorf("download request failed: %w", err))
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))

		return "", network(fmt.Errorf("%s, %s: %w: %s",
			rawURL, response.Status, errBadHTTPStatus, strings.TrimSpace(string(body))))
	}

	if response.ContentLength > 0 {
		logger.InfoKV(ctx, "Artifact size", "size", humanize.Bytes(uint64(response.ContentLength)))
	}

	file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, stagingFileMode)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}

	hasher := sha256.New()
	source := &sourceReader{r: response.Body}

	written, copyErr := io.Copy(io.MultiWriter(file, hasher), source)
	closeErr := file.Close()

	switch {
	case source.err != nil:
		return "", network(fmt.Errorf("read response body: %w", source.err))
	case copyErr != nil:
		return "", fmt.Errorf("write staging file: %w", copyErr)
	case closeErr != nil:
		return "", fmt.Errorf("close staging file: %w", closeErr)
	}

	logger.InfoKV(ctx, "Downloaded artifact", "size", humanize.Bytes(uint64(written)))

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// verifyChecksum compares the expected and computed hex digests case-insensitively.
func verifyChecksum(rawURL, expected, got string) error {
	if strings.EqualFold(expected, got) {
		return nil
	}

	return &ChecksumError{
		URL:      rawURL,
		Expected: strings.ToLower(expected),
		Got:      got,
	}
}
