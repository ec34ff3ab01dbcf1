package domain

// Router selects the successor of a node from the full State snapshot.
// It must be free of side effects and return the same name for identical State.
type Router func(state State) string

// Edge is a static edge, always taken after From completes.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// ConditionalEdge routes From to one of Candidates, chosen by Router.
// Candidates enumerates every name the router may legally return (End included).
type ConditionalEdge struct {
	From       string   `json:"from"`
	Router     Router   `json:"-"`
	Candidates []string `json:"candidates"`
}

// Allows reports whether target belongs to the declared candidate set.
func (c ConditionalEdge) Allows(target string) bool {
	for _, name := range c.Candidates {
		if name == target {
			return true
		}
	}
	return false
}
