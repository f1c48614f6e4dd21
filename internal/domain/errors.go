package domain

import "errors"

var (
	// ErrNotFound signals a missing resource (content id, feature collection).
	ErrNotFound = errors.New("not found")
	// ErrUnknownEngine signals a search engine name with no registration.
	ErrUnknownEngine = errors.New("unknown search engine")
	// ErrUnknownFilter signals a filter name with no registration.
	ErrUnknownFilter = errors.New("unknown filter")
	// ErrUnknownTraversal signals an unsupported label traversal method.
	ErrUnknownTraversal = errors.New("unknown traversal method")
	// ErrStoreEmpty signals that the feature collection store holds nothing.
	ErrStoreEmpty = errors.New("feature collection store is empty")
	// ErrInvalidCorefValue signals a coreference value outside {-1, 0, 1}.
	ErrInvalidCorefValue = errors.New("invalid coref value")
	// ErrInvalidResult signals a malformed search engine result.
	ErrInvalidResult = errors.New("invalid search result")
)
