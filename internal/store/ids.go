package store

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// newRandomID returns prefix-<suffix> where suffix is 8 chars of base32
// (lowercase, no padding). 8 chars base32 ~= 40 bits of space.
func newRandomID(prefix string) (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b[:]))
	return prefix + "-" + suffix, nil
}

// NextItemID returns a fresh todo-xxx id not present in the snapshot.
func (s Store) NextItemID(db *DB) string {
	for i := 0; i < 10; i++ {
		id, err := newRandomID("todo")
		if err != nil {
			break
		}
		if _, exists := db.FindItem(id); !exists {
			return id
		}
	}
	// Extremely unlikely fallback.
	return fmt.Sprintf("todo-%d", len(db.Items)+1)
}
