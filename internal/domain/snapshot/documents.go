package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okian/motorgen/internal/domain/model"
)

// Document is one archived ranking page.
type Document struct {
	Path  string
	Name  string
	Date  model.Date
	Venue string
}

// ID returns the page's snapshot identifier.
func (d Document) ID() string { return model.SnapshotID(d.Date, d.Venue) }

var documentExts = map[string]bool{".bin": true, ".html": true, ".htm": true} //nolint:gochecknoglobals // lookup table

// ParseDocumentName recovers the date and venue from a file name such as
// rankingmotor2026010707.bin: the first 8 digits are YYYYMMDD, the next 2
// the venue code.
func ParseDocumentName(name string) (model.Date, string, error) {
	var digits strings.Builder
	for _, r := range name {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	ds := digits.String()
	if len(ds) < 10 {
		return 0, "", fmt.Errorf("%w: %s", ErrDocumentName, name)
	}
	d, err := model.ParseDate(ds[:8])
	if err != nil {
		return 0, "", fmt.Errorf("%w: %s: %w", ErrDocumentName, name, err)
	}
	return d, ds[8:10], nil
}

// DateRange is an inclusive filter on document dates. Zero bounds are open.
type DateRange struct {
	From, To model.Date
	HasFrom  bool
	HasTo    bool
}

// Contains reports whether d passes the filter.
func (r DateRange) Contains(d model.Date) bool {
	if r.HasFrom && d < r.From {
		return false
	}
	if r.HasTo && d > r.To {
		return false
	}
	return true
}

// ParseDateRange builds a filter from optional YYYYMMDD bounds.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	if from != "" {
		d, err := model.ParseDate(from)
		if err != nil {
			return r, err
		}
		r.From, r.HasFrom = d, true
	}
	if to != "" {
		d, err := model.ParseDate(to)
		if err != nil {
			return r, err
		}
		r.To, r.HasTo = d, true
	}
	if r.HasFrom && r.HasTo && r.From > r.To {
		return r, fmt.Errorf("%w: %s > %s", ErrDateRange, from, to)
	}
	return r, nil
}

// ListDocuments returns ranking pages in dir within the range, sorted by
// file name. Files whose names carry no date are skipped.
func ListDocuments(dir string, within DateRange) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var docs []Document
	for _, e := range entries {
		if e.IsDir() || !documentExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		d, venue, err := ParseDocumentName(e.Name())
		if err != nil || !within.Contains(d) {
			continue
		}
		docs = append(docs, Document{
			Path:  filepath.Join(dir, e.Name()),
			Name:  e.Name(),
			Date:  d,
			Venue: venue,
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}
