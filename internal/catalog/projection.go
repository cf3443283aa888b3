package catalog

import (
	"context"
	"sort"
	"strconv"

	"github.com/mtgvault/mtgvault/internal/kv"
	"github.com/mtgvault/mtgvault/internal/model"
)

// Projection is the cache-side view of collection membership and contents,
// kept in step with the durable store by the write coordinator. It is a
// projection, not an authority: the durable store wins on any disagreement
// and Replace rebuilds a collection from it.
type Projection struct {
	store kv.Store
}

// NewProjection constructs the projection over the given cache backend.
func NewProjection(store kv.Store) *Projection {
	return &Projection{store: store}
}

// AddCollection records a collection name in the owner's membership set.
func (p *Projection) AddCollection(ctx context.Context, owner, collection string) error {
	_, err := p.store.SAdd(ctx, collectionsKey(owner), collection)
	return err
}

// AddCard adds units to the projected count for one card line. The
// increment is atomic in the backend, so concurrent writers on the same
// entry do not lose updates. Membership is refreshed as a side effect for
// entries written before their collection was projected.
func (p *Projection) AddCard(ctx context.Context, owner, collection, card, edition string, units int64) error {
	if _, err := p.store.SAdd(ctx, collectionsKey(owner), collection); err != nil {
		return err
	}
	_, err := p.store.HIncrBy(ctx, collectionKey(owner, collection), entryField(card, edition), units)
	return err
}

// ListCollections returns the owner's collection names in sorted order.
func (p *Projection) ListCollections(ctx context.Context, owner string) ([]string, error) {
	return p.store.SMembers(ctx, collectionsKey(owner))
}

// ListEntries returns the projected contents of one collection, sorted by
// card name then edition code. Entries whose count dropped to zero are
// filtered out.
func (p *Projection) ListEntries(ctx context.Context, owner, collection string) ([]model.CollectionEntry, error) {
	fields, err := p.store.HGetAll(ctx, collectionKey(owner, collection))
	if err != nil {
		return nil, err
	}
	out := make([]model.CollectionEntry, 0, len(fields))
	for field, v := range fields {
		card, edition, ok := splitEntryField(field)
		if !ok {
			continue
		}
		units, err := strconv.ParseInt(v, 10, 64)
		if err != nil || units == 0 {
			continue
		}
		out = append(out, model.CollectionEntry{
			Owner:      owner,
			Collection: collection,
			Card:       card,
			Edition:    edition,
			Units:      units,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Card != out[j].Card {
			return out[i].Card < out[j].Card
		}
		return out[i].Edition < out[j].Edition
	})
	return out, nil
}

// Replace rebuilds one collection's projection from authoritative entries.
func (p *Projection) Replace(ctx context.Context, owner, collection string, entries []model.CollectionEntry) error {
	key := collectionKey(owner, collection)
	if err := p.store.Del(ctx, key); err != nil {
		return err
	}
	if _, err := p.store.SAdd(ctx, collectionsKey(owner), collection); err != nil {
		return err
	}
	for _, e := range entries {
		if err := p.store.HSet(ctx, key, entryField(e.Card, e.Edition), strconv.FormatInt(e.Units, 10)); err != nil {
			return err
		}
	}
	return nil
}
