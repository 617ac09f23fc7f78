// Package tle obtains two-line element sets: parsing, HTTP lookup against a
// CelesTrak-style GP endpoint, an on-disk fallback cache and synthetic
// elements for when neither is available.
package tle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TLEEntry represents a single satellite's two-line element set.
type TLEEntry struct {
	NORADID int       `json:"norad_id"`
	Name    string    `json:"name"`
	Epoch   time.Time `json:"epoch"`
	Line1   string    `json:"line1"`
	Line2   string    `json:"line2"`
}

// Format renders the entry in 3-line NORAD format, newline terminated.
func (e TLEEntry) Format() string {
	return fmt.Sprintf("%s\n%s\n%s\n", e.Name, e.Line1, e.Line2)
}

// ErrNotFound is returned when a provider has no elements for a catalog id.
var ErrNotFound = errors.New("element set not found")

// Provider looks up the current element set of one satellite.
type Provider interface {
	Lookup(ctx context.Context, catalogID int) (TLEEntry, error)
}

// Source records where a resolved element set came from.
type Source string

const (
	SourceLive      Source = "live"
	SourceCache     Source = "cache"
	SourceSimulated Source = "simulated"
)

// Resolved is an element set plus its provenance.
type Resolved struct {
	Entry  TLEEntry `json:"tle"`
	Source Source   `json:"source"`
}
