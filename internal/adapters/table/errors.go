package table

import "errors"

// Sentinel errors for table I/O.
var (
	ErrReadTable  = errors.New("read table")
	ErrWriteTable = errors.New("write table")
	ErrBadRecord  = errors.New("bad record")
)
