package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrInvalidInput     = errors.New("invalid input")

	// ErrExtraction covers unreadable or unsupported sources.
	ErrExtraction = errors.New("extraction failed")
	// ErrEmbedding covers embedding-service failures; combine with
	// ErrTemporary to mark the transient subset.
	ErrEmbedding = errors.New("embedding service failed")
	// ErrStore covers transaction and constraint failures in the chunk store.
	ErrStore = errors.New("store operation failed")
	// ErrRetrieval means every query variant failed; distinct from an empty
	// result set, which is a successful retrieval with no matches.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrConfiguration marks invalid project settings at write time.
	ErrConfiguration = errors.New("invalid configuration")

	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
