package agents

import (
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Markers recognised by the Supervisor in the latest message.
const (
	MarkerResearchComplete = "RESEARCH_COMPLETE"
	MarkerNeedMoreResearch = "NEED_MORE_RESEARCH"
)

// Supervisor routes a conversation between a researcher and a writer.
//
//   - RESEARCH_COMPLETE in the latest message goes to the writer.
//   - NEED_MORE_RESEARCH goes back to the researcher.
//   - A user message starts with the researcher.
//   - Anything else ends the run.
type Supervisor struct {
	Researcher string
	Writer     string
	Channel    string
}

// NewSupervisor creates a supervisor for the given node names.
func NewSupervisor(researcher, writer string) Supervisor {
	return Supervisor{Researcher: researcher, Writer: writer, Channel: DefaultChannel}
}

// Route implements domain.Router.
func (s Supervisor) Route(state domain.State) string {
	channel := s.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	last, ok := LastMessage(state, channel)
	if !ok {
		return domain.End
	}

	content := strings.ToUpper(last.Content)
	switch {
	case strings.Contains(content, MarkerResearchComplete):
		return s.Writer
	case strings.Contains(content, MarkerNeedMoreResearch):
		return s.Researcher
	case last.Role == RoleUser:
		return s.Researcher
	}
	return domain.End
}

// Candidates lists every name Route may return.
func (s Supervisor) Candidates() []string {
	return []string{s.Researcher, s.Writer, domain.End}
}

// MarkerRouter returns a router that sends the conversation to the first
// target whose marker appears in the latest message, or to fallback.
func MarkerRouter(channel string, markers map[string]string, fallback string) domain.Router {
	return func(state domain.State) string {
		last, ok := LastMessage(state, channel)
		if !ok {
			return fallback
		}
		content := strings.ToUpper(last.Content)
		best, bestAt := fallback, -1
		// earliest marker wins; ties go to the lexically smaller marker
		for _, marker := range slices.Sorted(maps.Keys(markers)) {
			at := strings.Index(content, strings.ToUpper(marker))
			if at < 0 {
				continue
			}
			if bestAt < 0 || at < bestAt {
				best, bestAt = markers[marker], at
			}
		}
		return best
	}
}
