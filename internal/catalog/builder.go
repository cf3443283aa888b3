package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/mtgvault/mtgvault/internal/errs"
	"github.com/mtgvault/mtgvault/internal/kv"
	"github.com/mtgvault/mtgvault/internal/model"
	"github.com/mtgvault/mtgvault/internal/monitoring"
)

// zaddBatch bounds the size of a single sorted-set insert.
const zaddBatch = 512

// BuildResult summarizes a completed catalog build.
type BuildResult struct {
	Generation int64
	Cards      int
	Editions   int
	Skipped    int
}

// bulkCard is the minimal shape the builder needs from each dataset record;
// the full record is stored opaquely.
type bulkCard struct {
	Name       string `json:"name"`
	Set        string `json:"set"`
	SetName    string `json:"set_name"`
	ReleasedAt string `json:"released_at"`
}

// Builder constructs catalog generations from a staged dataset and swaps
// them in atomically. At most one build runs at a time; a second request is
// rejected with errs.ErrBuildInProgress rather than queued.
type Builder struct {
	store       kv.Store
	maxSkipRate float64 // fraction of malformed records tolerated before the build aborts
	logger      *zap.Logger

	mu sync.Mutex // held for the whole build
}

// NewBuilder constructs a Builder. maxSkipRate outside (0,1] falls back to 0.5.
func NewBuilder(store kv.Store, maxSkipRate float64, logger *zap.Logger) *Builder {
	if maxSkipRate <= 0 || maxSkipRate > 1 {
		maxSkipRate = 0.5
	}
	return &Builder{store: store, maxSkipRate: maxSkipRate, logger: logger}
}

// Build streams the staged dataset and populates a new generation under its
// own key prefix, then activates it with a single pointer write. Readers
// never observe a mix of generations: until the swap they resolve the old
// pointer, after it the new one. A failed or cancelled build deletes its
// keys and leaves the active generation untouched.
func (b *Builder) Build(ctx context.Context, ds *StagedDataset) (*BuildResult, error) {
	if !b.mu.TryLock() {
		return nil, errs.ErrBuildInProgress
	}
	defer b.mu.Unlock()

	gen, err := b.store.Incr(ctx, keyGenSeq)
	if err != nil {
		return nil, err
	}

	res, err := b.populate(ctx, gen, ds)
	if err != nil {
		b.discard(ctx, gen)
		monitoring.CatalogBuilds.WithLabelValues("failed").Inc()
		return nil, err
	}

	if err := b.swap(ctx, gen); err != nil {
		b.discard(ctx, gen)
		monitoring.CatalogBuilds.WithLabelValues("failed").Inc()
		return nil, err
	}

	monitoring.CatalogBuilds.WithLabelValues("ok").Inc()
	monitoring.BuildRecordsSkipped.Add(float64(res.Skipped))
	b.logger.Info("catalog generation activated",
		zap.Int64("generation", gen),
		zap.Int("cards", res.Cards),
		zap.Int("editions", res.Editions),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// populate writes all keys of the new generation. Nothing it writes is
// visible to readers until swap.
func (b *Builder) populate(ctx context.Context, gen int64, ds *StagedDataset) (*BuildResult, error) {
	f, err := os.Open(ds.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	dec := json.NewDecoder(f)
	if tok, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptInput, err)
	} else if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("%w: expected top-level array, got %v", errs.ErrCorruptInput, tok)
	}

	var (
		skipped     int
		seen        = make(map[string]struct{})
		editions    = make(map[string]model.Edition)
		suggestions []string
	)
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrCorruptInput, err)
		}
		var rec bulkCard
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Name == "" || rec.Set == "" {
			skipped++
			continue
		}

		id := cardKey(gen, rec.Name, rec.Set)
		if _, dup := seen[id]; dup {
			continue // reprints of the same (name, edition) pair collapse
		}
		seen[id] = struct{}{}

		if err := b.store.Set(ctx, id, string(raw)); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, encodeSuggestion(rec.Name, rec.Set))
		if _, ok := editions[rec.Set]; !ok {
			editions[rec.Set] = model.Edition{Code: rec.Set, Name: rec.SetName, ReleasedAt: rec.ReleasedAt}
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptInput, err)
	}

	total := len(seen) + skipped
	if total == 0 {
		return nil, fmt.Errorf("%w: dataset contains no records", errs.ErrCorruptInput)
	}
	if rate := float64(skipped) / float64(total); rate > b.maxSkipRate {
		return nil, fmt.Errorf("%w: skip rate %.2f exceeds threshold %.2f (%d of %d records)",
			errs.ErrCorruptInput, rate, b.maxSkipRate, skipped, total)
	}

	for start := 0; start < len(suggestions); start += zaddBatch {
		end := min(start+zaddBatch, len(suggestions))
		if err := b.store.ZAdd(ctx, suggestKey(gen), suggestions[start:end]...); err != nil {
			return nil, err
		}
	}
	for code, ed := range editions {
		data, err := json.Marshal(ed)
		if err != nil {
			return nil, err
		}
		if err := b.store.Set(ctx, editionKey(gen, code), string(data)); err != nil {
			return nil, err
		}
	}

	return &BuildResult{Generation: gen, Cards: len(seen), Editions: len(editions), Skipped: skipped}, nil
}

// swap activates gen and retires the generation displaced two swaps ago.
// The previous generation stays readable until the next successful build so
// requests that resolved the old pointer just before the swap finish
// against intact keys.
//
// The active-pointer write is the last effectful step. All bookkeeping runs
// before it, so a failure anywhere in swap leaves the old pointer in place
// and the caller free to discard the new generation; once the pointer is
// written nothing can fail and strand readers on a discarded generation.
func (b *Builder) swap(ctx context.Context, gen int64) error {
	prev, err := b.store.Get(ctx, keyActiveGen)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return err
	}

	// A retiring value equal to prev means an earlier swap failed between
	// the bookkeeping and the pointer write; prev is still active, so its
	// keys must survive.
	if retiring, err := b.store.Get(ctx, keyRetiring); err == nil && retiring != "" && retiring != prev {
		if old, perr := strconv.ParseInt(retiring, 10, 64); perr == nil {
			b.discard(ctx, old)
		}
	}
	if prev != "" {
		if err := b.store.Set(ctx, keyRetiring, prev); err != nil {
			return err
		}
	}

	return b.store.Set(ctx, keyActiveGen, strconv.FormatInt(gen, 10))
}

// discard deletes all keys of a generation. Runs on an uncancellable
// context so an aborted build still cleans up after itself.
func (b *Builder) discard(ctx context.Context, gen int64) {
	cleanupCtx := context.WithoutCancel(ctx)
	keys, err := b.store.Keys(cleanupCtx, genKey(gen)+":")
	if err != nil {
		b.logger.Warn("generation cleanup scan failed", zap.Int64("generation", gen), zap.Error(err))
		return
	}
	if err := b.store.Del(cleanupCtx, keys...); err != nil {
		b.logger.Warn("generation cleanup failed", zap.Int64("generation", gen), zap.Error(err))
	}
}
