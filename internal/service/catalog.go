package service

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mtgvault/mtgvault/internal/catalog"
	"github.com/mtgvault/mtgvault/internal/errs"
	"github.com/mtgvault/mtgvault/internal/model"
)

// suggestLimit caps autocomplete results per request.
const suggestLimit = 20

// DatasetFetcher stages the bulk dataset locally. Implemented by
// catalog.Fetcher.
type DatasetFetcher interface {
	Fetch(ctx context.Context) (*catalog.StagedDataset, error)
	StagedPath() string
}

// CatalogBuilder turns a staged dataset into the active catalog generation.
// Implemented by catalog.Builder.
type CatalogBuilder interface {
	Build(ctx context.Context, ds *catalog.StagedDataset) (*catalog.BuildResult, error)
}

// CatalogReader is the read contract over the active generation.
// Implemented by catalog.Catalog.
type CatalogReader interface {
	Suggest(ctx context.Context, prefix string, limit int) ([]model.Suggestion, error)
	ListEditions(ctx context.Context) ([]model.Edition, error)
}

// CatalogService exposes catalog reads and the fetch/synchronize triggers.
type CatalogService interface {
	// Suggest returns autocomplete entries for a name prefix.
	Suggest(ctx context.Context, text string) ([]model.Suggestion, error)
	// ListEditions returns all editions of the active catalog.
	ListEditions(ctx context.Context) ([]model.Edition, error)
	// EditionsDropdown returns editions shaped for a UI select box.
	EditionsDropdown(ctx context.Context) ([]model.DropdownItem, error)
	// TriggerFetch stages a fresh copy of the bulk dataset.
	TriggerFetch(ctx context.Context) (*catalog.StagedDataset, error)
	// TriggerSynchronize rebuilds the catalog from the staged dataset.
	TriggerSynchronize(ctx context.Context) (*catalog.BuildResult, error)
}

type CatalogServiceImpl struct {
	fetcher DatasetFetcher
	builder CatalogBuilder
	view    CatalogReader
	logger  *zap.Logger
}

// NewCatalogService wires the pipeline components together.
func NewCatalogService(fetcher DatasetFetcher, builder CatalogBuilder, view CatalogReader, logger *zap.Logger) *CatalogServiceImpl {
	return &CatalogServiceImpl{fetcher: fetcher, builder: builder, view: view, logger: logger}
}

// Suggest returns up to suggestLimit matches for the given prefix.
func (s *CatalogServiceImpl) Suggest(ctx context.Context, text string) ([]model.Suggestion, error) {
	if text == "" {
		return nil, nil
	}
	return s.view.Suggest(ctx, text, suggestLimit)
}

// ListEditions passes through to the active generation.
func (s *CatalogServiceImpl) ListEditions(ctx context.Context) ([]model.Edition, error) {
	return s.view.ListEditions(ctx)
}

// EditionsDropdown formats edition names for the UI.
func (s *CatalogServiceImpl) EditionsDropdown(ctx context.Context) ([]model.DropdownItem, error) {
	eds, err := s.view.ListEditions(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(eds))
	for i, ed := range eds {
		names[i] = ed.Name
	}
	return catalog.FormatDropdown(names), nil
}

// TriggerFetch stages the bulk dataset; retry policy is the caller's call.
func (s *CatalogServiceImpl) TriggerFetch(ctx context.Context) (*catalog.StagedDataset, error) {
	return s.fetcher.Fetch(ctx)
}

// TriggerSynchronize builds a new generation from whatever fetch last
// staged. Requires a completed fetch; a concurrent build is rejected by the
// builder.
func (s *CatalogServiceImpl) TriggerSynchronize(ctx context.Context) (*catalog.BuildResult, error) {
	path := s.fetcher.StagedPath()
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: no staged dataset at %s; run fetch first", errs.ErrValidation, path)
	}
	return s.builder.Build(ctx, &catalog.StagedDataset{Path: path, Size: info.Size()})
}
