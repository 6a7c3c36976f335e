package vector

import "errors"

var (
	// ErrDuplicateName is returned by Registry.Create when a live
	// collection with the same name already exists.
	ErrDuplicateName = errors.New("collection name already exists")
	// ErrDuplicateID is returned by Collection.Add when an ID repeats
	// within the same collection.
	ErrDuplicateID = errors.New("duplicate unit id")
	// ErrDimensionMismatch is returned by Collection.Add when a vector's
	// length differs from the dimension fixed by the first unit added,
	// and by Query when the query vector has the wrong length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrNotFound is returned when a collection name is not registered.
	ErrNotFound = errors.New("collection not found")
)
