package domain

// Reserved node names. Start is the graph's single entry, End its terminal exit.
const (
	Start = "__start__"
	End   = "__end__"
)

// DefaultMaxSteps is the step budget applied when the caller does not set one.
const DefaultMaxSteps = 25

// IsSentinel reports whether name is one of the reserved node names.
func IsSentinel(name string) bool {
	return name == Start || name == End
}
