// Package catalog implements the catalog synchronization pipeline: bulk
// dataset staging, generation builds over the cache backend, the read
// contract over the active generation, and the cache-side collection
// projection.
package catalog

import (
	"strconv"
	"strings"

	"github.com/mtgvault/mtgvault/internal/model"
)

// Cache key layout. Catalog data lives under a generation prefix so a build
// never touches keys a reader might currently resolve; the single active
// pointer is the only key the swap mutates.
const (
	keyActiveGen  = "catalog:active"   // generation id readers resolve per request
	keyGenSeq     = "catalog:gen:seq"  // monotonically increasing generation counter
	keyRetiring   = "catalog:retiring" // generation whose keys are deleted on the next swap
	genPrefix     = "gen:"
	suggestSuffix = ":suggest"

	// sep never occurs in card names or edition codes.
	sep = "\x00"
)

func genKey(gen int64) string {
	return genPrefix + strconv.FormatInt(gen, 10)
}

func cardKey(gen int64, name, edition string) string {
	return genKey(gen) + ":card:" + strings.ToLower(name) + ":" + edition
}

func editionKey(gen int64, code string) string {
	return genKey(gen) + ":edition:" + code
}

func editionPrefix(gen int64) string {
	return genKey(gen) + ":edition:"
}

func suggestKey(gen int64) string {
	return genKey(gen) + suggestSuffix
}

// encodeSuggestion builds a sorted-set member that orders case-insensitively
// by name with edition code as tiebreaker, while keeping the display name.
func encodeSuggestion(name, edition string) string {
	return strings.ToLower(name) + sep + edition + sep + name
}

// decodeSuggestion is the inverse of encodeSuggestion.
func decodeSuggestion(member string) (model.Suggestion, bool) {
	parts := strings.SplitN(member, sep, 3)
	if len(parts) != 3 {
		return model.Suggestion{}, false
	}
	return model.Suggestion{Name: parts[2], Edition: parts[1]}, true
}

// Projection key layout, kept outside generation prefixes: collections are
// user data maintained by the write coordinator, not rebuilt from the bulk
// dataset.
func collectionsKey(owner string) string {
	return "collections:" + owner
}

func collectionKey(owner, collection string) string {
	return "collection:" + owner + ":" + collection
}

func entryField(card, edition string) string {
	return card + sep + edition
}

func splitEntryField(field string) (card, edition string, ok bool) {
	parts := strings.SplitN(field, sep, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
