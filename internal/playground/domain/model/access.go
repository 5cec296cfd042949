package model

// AccessLevel is a tier granted through a share.
type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessAdmin AccessLevel = "admin"
)

// Rank orders the tiers. Unknown levels rank 0 and satisfy nothing.
func (l AccessLevel) Rank() int {
	switch l {
	case AccessRead:
		return 1
	case AccessWrite:
		return 2
	case AccessAdmin:
		return 3
	default:
		return 0
	}
}

// Valid reports whether l is a known tier
func (l AccessLevel) Valid() bool {
	return l.Rank() > 0
}

// Satisfies reports whether l grants at least required. An empty required
// level means read.
func (l AccessLevel) Satisfies(required AccessLevel) bool {
	if required == "" {
		required = AccessRead
	}
	return l.Rank() > 0 && l.Rank() >= required.Rank()
}
