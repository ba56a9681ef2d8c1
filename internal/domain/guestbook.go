package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// IDColumn is the ordinal column guestbook rows are sorted by
const IDColumn = "id"

// GuestbookEntry is one row of the guestbook dataset.
// Columns are owned by the external schema and passed through unchanged.
type GuestbookEntry map[string]any

// GuestbookEntries is a list of rows, newest (highest id) first
type GuestbookEntries []GuestbookEntry

// ID returns the ordinal identifier of the row.
// The second return value is false when the row has no usable id.
func (e GuestbookEntry) ID() (int64, bool) {
	v, ok := e[IDColumn]
	if !ok {
		return 0, false
	}

	switch id := v.(type) {
	case int:
		return int64(id), true
	case int32:
		return int64(id), true
	case int64:
		return id, true
	case float64:
		return int64(id), true
	case json.Number:
		n, err := id.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(id), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// MarshalJSON encodes a nil list as an empty array
func (ee GuestbookEntries) MarshalJSON() ([]byte, error) {
	if ee == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]GuestbookEntry(ee))
}

// SortByIDDesc orders rows by id, highest first. Rows without an id go last.
func (ee GuestbookEntries) SortByIDDesc() {
	sort.SliceStable(ee, func(i, j int) bool {
		a, aok := ee[i].ID()
		b, bok := ee[j].ID()
		if aok != bok {
			return aok
		}
		return a > b
	})
}

// CheckDescending returns an error naming the first pair that is not strictly descending
func (ee GuestbookEntries) CheckDescending() error {
	for i := 1; i < len(ee); i++ {
		a, aok := ee[i-1].ID()
		b, bok := ee[i].ID()
		if !aok || !bok {
			return fmt.Errorf("rows %d and %d: missing id", i-1, i)
		}
		if a <= b {
			return fmt.Errorf("rows %d and %d out of order: id %d before id %d", i-1, i, a, b)
		}
	}
	return nil
}
