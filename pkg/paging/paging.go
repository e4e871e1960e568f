package paging

const (
	DefaultLimit int64 = 100
	MaxLimit     int64 = 100
)

// Page is an offset based window over a sorted listing.
type Page struct {
	Offset int64
	Limit  int64
}

// Clamp keeps offset in [0, inf) and limit in [1, MaxLimit].
// A zero limit means the caller did not ask for one and becomes DefaultLimit.
func (p Page) Clamp() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}

	switch {
	case p.Limit == 0:
		p.Limit = DefaultLimit
	case p.Limit < 1:
		p.Limit = 1
	}

	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	return p
}

// LimitFrom turn an optional requested limit into Page.Limit.
// Absent is 0, an explicit value below 1 is raised to 1.
func LimitFrom(limit *int64) int64 {
	if limit == nil {
		return 0
	}

	if *limit < 1 {
		return 1
	}

	return *limit
}
