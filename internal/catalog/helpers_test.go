package catalog

import "github.com/mtgvault/mtgvault/internal/kv"

func newTestStore() kv.Store { return kv.NewMemory() }
