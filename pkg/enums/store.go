package enums

import (
	"fmt"
	"strings"
)

// Store is one of the company's physical branches.
type Store string

const (
	StoreMain   Store = "main"
	StoreBranch Store = "branch"
	// StoreAll is a view filter only and is never written to a record.
	StoreAll Store = "all"
)

var validStores = []Store{
	StoreMain,
	StoreBranch,
	StoreAll,
}

// String implements fmt.Stringer.
func (s Store) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Store, including the aggregate view.
func (s Store) IsValid() bool {
	for _, candidate := range validStores {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsPersistable reports whether the store may be stored on a record.
func (s Store) IsPersistable() bool {
	return s == StoreMain || s == StoreBranch
}

// ParseStore converts raw input into a Store.
func ParseStore(value string) (Store, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validStores {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid store %q", value)
}
