package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mtgvault/mtgvault/internal/errs"
)

// stagedName is the file a completed fetch renames into place. The builder
// only ever reads this path, so an interrupted fetch is invisible to it.
const stagedName = "bulk-cards.json"

// StagedDataset describes a fully downloaded bulk dataset on local disk.
type StagedDataset struct {
	Path   string
	Size   int64
	SHA256 string
}

// Fetcher downloads the bulk card dataset into a staging directory.
type Fetcher struct {
	url       string
	dir       string
	expectSHA string // optional hex digest to verify against
	client    *http.Client
	logger    *zap.Logger
}

// NewFetcher constructs a Fetcher for the given bulk URL and staging
// directory. expectSHA may be empty when the source publishes no digest.
func NewFetcher(url, dir, expectSHA string, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		url:       url,
		dir:       dir,
		expectSHA: expectSHA,
		client:    &http.Client{Timeout: 10 * time.Minute},
		logger:    logger,
	}
}

// StagedPath returns where a completed fetch lands.
func (f *Fetcher) StagedPath() string {
	return filepath.Join(f.dir, stagedName)
}

// Fetch streams the dataset to a temp file and renames it into place only
// after the full payload arrived and verified. Safe to invoke repeatedly;
// a failed attempt leaves no partial staged file behind.
func (f *Fetcher) Fetch(ctx context.Context) (*StagedDataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrValidation, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: source returned %d", errs.ErrTransient, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: source returned %d", errs.ErrCorruptInput, resp.StatusCode)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(f.dir, "bulk-*.tmp")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name()) // no-op once renamed
	}()

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hash), resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrTransient, err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return nil, fmt.Errorf("%w: got %d of %d bytes", errs.ErrCorruptInput, n, resp.ContentLength)
	}
	digest := hex.EncodeToString(hash.Sum(nil))
	if f.expectSHA != "" && digest != f.expectSHA {
		return nil, fmt.Errorf("%w: digest mismatch", errs.ErrCorruptInput)
	}

	if err := tmp.Close(); err != nil {
		return nil, err
	}
	path := f.StagedPath()
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, err
	}

	f.logger.Info("bulk dataset staged",
		zap.String("path", path),
		zap.Int64("bytes", n),
		zap.String("sha256", digest),
	)
	return &StagedDataset{Path: path, Size: n, SHA256: digest}, nil
}
