package kv

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mtgvault/mtgvault/internal/errs"
)

// Memory is an in-process Store used by tests and local development. It
// mirrors the Redis semantics the rest of the code relies on, including
// lex-range bounds.
type Memory struct {
	mu     sync.RWMutex
	vals   map[string]string
	zsets  map[string]map[string]struct{}
	sets   map[string]map[string]struct{}
	hashes map[string]map[string]string
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		vals:   make(map[string]string),
		zsets:  make(map[string]map[string]struct{}),
		sets:   make(map[string]map[string]struct{}),
		hashes: make(map[string]map[string]string),
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = value
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.vals, k)
		delete(m.zsets, k)
		delete(m.sets, k)
		delete(m.hashes, k)
	}
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	seen := make(map[string]struct{})
	add := func(k string) {
		if strings.HasPrefix(k, prefix) {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	for k := range m.vals {
		add(k)
	}
	for k := range m.zsets {
		add(k)
	}
	for k := range m.sets {
		add(k)
	}
	for k := range m.hashes {
		add(k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) MGet(_ context.Context, keys ...string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = m.vals[k]
	}
	return out, nil
}

func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, _ := strconv.ParseInt(m.vals[key], 10, 64)
	cur++
	m.vals[key] = strconv.FormatInt(cur, 10)
	return cur, nil
}

func (m *Memory) ZAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.zsets[key]
	if !ok {
		set = make(map[string]struct{})
		m.zsets[key] = set
	}
	for _, mem := range members {
		set[mem] = struct{}{}
	}
	return nil
}

func (m *Memory) ZRangeByLex(_ context.Context, key, min, max string, count int64) ([]string, error) {
	m.mu.RLock()
	members := make([]string, 0, len(m.zsets[key]))
	for mem := range m.zsets[key] {
		members = append(members, mem)
	}
	m.mu.RUnlock()

	sort.Strings(members)
	var out []string
	for _, mem := range members {
		if !lexAfterMin(mem, min) {
			continue
		}
		if !lexBeforeMax(mem, max) {
			break
		}
		out = append(out, mem)
		if count > 0 && int64(len(out)) == count {
			break
		}
	}
	return out, nil
}

func (m *Memory) SAdd(_ context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	var added int64
	for _, mem := range members {
		if _, exists := set[mem]; !exists {
			set[mem] = struct{}{}
			added++
		}
	}
	return added, nil
}

func (m *Memory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sets[key]))
	for mem := range m.sets[key] {
		out = append(out, mem)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) HIncrBy(_ context.Context, key, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	cur, _ := strconv.ParseInt(h[field], 10, 64)
	cur += delta
	h[field] = strconv.FormatInt(cur, 10)
	return cur, nil
}

func (m *Memory) HSet(_ context.Context, key, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	h[field] = value
	return nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

// lexAfterMin reports whether member is within the lower lex bound
// ("-" open, "[x" inclusive, "(x" exclusive).
func lexAfterMin(member, min string) bool {
	switch {
	case min == "-" || min == "":
		return true
	case strings.HasPrefix(min, "["):
		return member >= min[1:]
	case strings.HasPrefix(min, "("):
		return member > min[1:]
	default:
		return member >= min
	}
}

// lexBeforeMax reports whether member is within the upper lex bound
// ("+" open, "[x" inclusive, "(x" exclusive).
func lexBeforeMax(member, max string) bool {
	switch {
	case max == "+" || max == "":
		return true
	case strings.HasPrefix(max, "["):
		return member <= max[1:]
	case strings.HasPrefix(max, "("):
		return member < max[1:]
	default:
		return member <= max
	}
}
