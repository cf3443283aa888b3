package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/mtgvault/mtgvault/internal/errs"
	"github.com/mtgvault/mtgvault/internal/kv"
	"github.com/mtgvault/mtgvault/internal/model"
)

// Catalog is the read-only contract over the active generation. It resolves
// the active-generation pointer once per call, so every answer comes from a
// single, fully-populated generation. Only the Builder writes these keys.
type Catalog struct {
	store kv.Store
}

// NewCatalog constructs the read view over the given cache backend.
func NewCatalog(store kv.Store) *Catalog {
	return &Catalog{store: store}
}

// activeGen returns the active generation id, or false when no build has
// ever completed.
func (c *Catalog) activeGen(ctx context.Context) (int64, bool, error) {
	v, err := c.store.Get(ctx, keyActiveGen)
	if errors.Is(err, errs.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	gen, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return gen, true, nil
}

// Suggest returns up to limit cards whose name starts with prefix,
// case-insensitively, ordered by name then edition code. No match or no
// active catalog yields an empty result, not an error.
func (c *Catalog) Suggest(ctx context.Context, prefix string, limit int) ([]model.Suggestion, error) {
	if limit <= 0 {
		return nil, nil
	}
	gen, ok, err := c.activeGen(ctx)
	if err != nil || !ok {
		return nil, err
	}

	low := strings.ToLower(prefix)
	members, err := c.store.ZRangeByLex(ctx, suggestKey(gen), "["+low, "["+low+"\xff", int64(limit))
	if err != nil {
		return nil, err
	}
	out := make([]model.Suggestion, 0, len(members))
	for _, m := range members {
		if s, ok := decodeSuggestion(m); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// ListEditions returns all editions of the active generation sorted by
// edition code.
func (c *Catalog) ListEditions(ctx context.Context) ([]model.Edition, error) {
	gen, ok, err := c.activeGen(ctx)
	if err != nil || !ok {
		return nil, err
	}

	keys, err := c.store.Keys(ctx, editionPrefix(gen))
	if err != nil {
		return nil, err
	}
	vals, err := c.store.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	out := make([]model.Edition, 0, len(vals))
	for _, v := range vals {
		if v == "" {
			continue // key retired between scan and read
		}
		var ed model.Edition
		if err := json.Unmarshal([]byte(v), &ed); err != nil {
			continue
		}
		out = append(out, ed)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// GetCard returns the opaque dataset record for one (name, edition) pair
// from the active generation.
func (c *Catalog) GetCard(ctx context.Context, name, edition string) (*model.Card, error) {
	gen, ok, err := c.activeGen(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrNotFound
	}
	v, err := c.store.Get(ctx, cardKey(gen, name, edition))
	if err != nil {
		return nil, err
	}
	return &model.Card{Name: name, Edition: edition, Attrs: json.RawMessage(v)}, nil
}

// FormatDropdown shapes a list of names into UI select-box options. Pure
// formatting; lives here because it shares the read path.
func FormatDropdown(names []string) []model.DropdownItem {
	out := make([]model.DropdownItem, len(names))
	for i, n := range names {
		out[i] = model.DropdownItem{ID: i, Name: n}
	}
	return out
}
