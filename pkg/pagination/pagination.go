package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many products any listing can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or commands.
type Params struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps the limit and floors the offset at zero.
func (p Params) Normalize() Params {
	p.Limit = NormalizeLimit(p.Limit)
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ForPage converts a 1-based page number into offset params.
func ForPage(page, limit int) Params {
	limit = NormalizeLimit(limit)
	if page < 1 {
		page = 1
	}
	return Params{Limit: limit, Offset: (page - 1) * limit}
}

// HasMore reports whether a page of size got at offset leaves items unread out of total.
func HasMore(p Params, got, total int) bool {
	return got > 0 && p.Offset+got < total
}
