package analytics

import "errors"

var (
	// ErrInvalidSample is returned by Record for values outside the accepted
	// domain. The rejection is counted on the current day's bucket.
	ErrInvalidSample = errors.New("sample must be a whole number in [1, timeout)")

	// ErrWindowInconsistent means totalCount no longer matches the merged
	// histogram contents. This is an accounting bug, not a data problem.
	ErrWindowInconsistent = errors.New("window total count inconsistent with histogram contents")
)
