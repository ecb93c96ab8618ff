package snapshot

import "errors"

// Sentinel errors for snapshot extraction.
var (
	ErrNoDocuments  = errors.New("no snapshot rows extracted from any document")
	ErrDocumentName = errors.New("document name carries no date and venue")
	ErrDateRange    = errors.New("start date is after end date")
	ErrReadDocument = errors.New("read document")
)
