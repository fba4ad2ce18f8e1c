package naptan

import "fmt"

// NetworkError means the remote fetch failed or returned no usable body.
// It always aborts the run before the staging database is created.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IOError means a local filesystem or staging-database operation failed:
// copy, schema setup, batch flush, finalize, rename or cleanup.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
