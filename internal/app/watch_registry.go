package app

import (
	"sort"
	"strings"
	"sync"
)

// WatchClass is the reason an address is watched.
type WatchClass int

const (
	NotWatched WatchClass = iota
	WatchManual
	WatchSmartMoney
)

func (c WatchClass) String() string {
	switch c {
	case WatchManual:
		return "manual"
	case WatchSmartMoney:
		return "smart_money"
	default:
		return "not_watched"
	}
}

// WatchEntry is one watched address.
type WatchEntry struct {
	Address string `json:"address"`
	Class   string `json:"class"`
}

// WatchRegistry holds watched addresses partitioned into manual whales and
// discovered smart money. An address is present at most once; manual entries
// are never downgraded. Safe for concurrent use.
type WatchRegistry struct {
	mu      sync.RWMutex
	entries map[string]WatchClass
}

func NewWatchRegistry() *WatchRegistry {
	return &WatchRegistry{entries: make(map[string]WatchClass)}
}

func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// AddManual marks address as a manual whale. Empty addresses are ignored.
func (w *WatchRegistry) AddManual(address string) {
	address = normalizeAddress(address)
	if address == "" {
		return
	}
	w.mu.Lock()
	w.entries[address] = WatchManual
	w.mu.Unlock()
}

// AddSmartMoney marks address as smart money unless it is already a manual
// whale. It reports whether the address was newly added as smart money.
func (w *WatchRegistry) AddSmartMoney(address string) bool {
	address = normalizeAddress(address)
	if address == "" {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.entries[address] {
	case WatchManual:
		return false
	case WatchSmartMoney:
		return false
	}
	w.entries[address] = WatchSmartMoney
	return true
}

func (w *WatchRegistry) Contains(address string) bool {
	return w.Classify(address) != NotWatched
}

func (w *WatchRegistry) Classify(address string) WatchClass {
	address = normalizeAddress(address)
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.entries[address]
}

func (w *WatchRegistry) Size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entries)
}

// Counts returns the number of manual and smart-money entries.
func (w *WatchRegistry) Counts() (manual, smartMoney int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, c := range w.entries {
		if c == WatchManual {
			manual++
		} else {
			smartMoney++
		}
	}
	return manual, smartMoney
}

// Entries returns a snapshot sorted by class, then address.
func (w *WatchRegistry) Entries() []WatchEntry {
	w.mu.RLock()
	out := make([]WatchEntry, 0, len(w.entries))
	for addr, c := range w.entries {
		out = append(out, WatchEntry{Address: addr, Class: c.String()})
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].Address < out[j].Address
	})
	return out
}
