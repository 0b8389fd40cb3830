package catalog

// Status classifies the outcome of a catalog call.
type Status int

const (
	// StatusNoMatch means the catalog answered but nothing matched.
	StatusNoMatch Status = iota
	// StatusFound means at least one valid book was returned.
	StatusFound
	// StatusFailed means the request could not be completed or decoded.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusFailed:
		return "failed"
	default:
		return "no_match"
	}
}

// Result is the explicit outcome of a catalog call. The fail-soft lookups
// collapse StatusNoMatch and StatusFailed into "absent"; callers that need to
// tell a genuine miss from a transport failure use Result directly.
type Result struct {
	Status Status
	Books  []Book
	Err    error
}

// First returns the first book of a found result.
func (r Result) First() (Book, bool) {
	if r.Status != StatusFound || len(r.Books) == 0 {
		return Book{}, false
	}
	return r.Books[0], true
}

func found(books []Book) Result {
	if len(books) == 0 {
		return Result{Status: StatusNoMatch}
	}
	return Result{Status: StatusFound, Books: books}
}

func failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}
