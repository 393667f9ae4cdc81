package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// ItemCounts maps a laundry item id to a quantity
type ItemCounts map[string]int

// Value implements the driver.Valuer interface (JSONB)
func (c ItemCounts) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface
func (c *ItemCounts) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	return scanJSON(value, c, "ItemCounts")
}

// Get returns the quantity for id; an absent item counts as zero
func (c ItemCounts) Get(id string) int {
	return c[id]
}

// Keys returns the sorted union of item ids in c and other
func (c ItemCounts) Keys(other ItemCounts) []string {
	seen := make(map[string]struct{}, len(c)+len(other))
	for k := range c {
		seen[k] = struct{}{}
	}
	for k := range other {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate rejects negative quantities and empty item ids
func (c ItemCounts) Validate() error {
	for id, qty := range c {
		if id == "" {
			return fmt.Errorf("item id must not be empty")
		}
		if qty < 0 {
			return fmt.Errorf("quantity for item %s must not be negative", id)
		}
	}
	return nil
}

// ItemDiff is one mismatching item between expected and reported counts
type ItemDiff struct {
	ItemID      string `json:"item_id"`
	ExpectedQty int    `json:"expected_qty"`
	ReportedQty int    `json:"reported_qty"`
}

// ItemDiffs is stored as JSONB on the bypass request
type ItemDiffs []ItemDiff

func (d ItemDiffs) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

func (d *ItemDiffs) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	return scanJSON(value, d, "ItemDiffs")
}

// scanJSON accepts both []byte (lib/pq) and string (pgx stdlib) JSONB values
func scanJSON(value interface{}, dst interface{}, name string) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("type assertion to []byte failed for %s", name)
	}
}
