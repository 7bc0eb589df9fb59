package domain

import (
	"fmt"
	"time"
)

// MonthlySnapshot is one precomputed per-month financial summary for a realm,
// the substrate natural-language queries run against. Data is a nested
// category-keyed numeric map (revenues positive, expenses positive). At most
// one row exists per (realm, year, month); closed months are immutable.
type MonthlySnapshot struct {
	RealmID   string         `json:"realmId"`
	Year      int            `json:"year"`
	Month     int            `json:"month"`
	Data      map[string]any `json:"data"`
	Embedding []float64      `json:"-"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// MonthLabel returns the snapshot's calendar month as YYYY-MM.
func (s MonthlySnapshot) MonthLabel() string {
	return fmt.Sprintf("%04d-%02d", s.Year, s.Month)
}

// HasEmbedding reports whether a semantic embedding has been precomputed.
func (s MonthlySnapshot) HasEmbedding() bool {
	return len(s.Embedding) > 0
}
