package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildError_ListsEveryIssue(t *testing.T) {
	err := &BuildError{Issues: []BuildIssue{
		{Kind: IssueDuplicateNode, Node: "a", Detail: "already registered"},
		{Kind: IssueUnreachableNode, Node: "b", Detail: "no path from START"},
	}}

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "build error: 2 issues"))
	assert.Contains(t, msg, `duplicate_node "a"`)
	assert.Contains(t, msg, `unreachable_node "b"`)
	assert.True(t, err.Has(IssueUnreachableNode))
	assert.False(t, err.Has(IssueDeadEnd))
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("quota exceeded")
	wrapped := fmt.Errorf("run: %w", &ExecutionError{Node: "writer", Step: 2, Err: cause})

	var execErr *ExecutionError
	require.ErrorAs(t, wrapped, &execErr)
	assert.Equal(t, "writer", execErr.Node)
	assert.ErrorIs(t, wrapped, cause)
}

func TestConfigurationError_Message(t *testing.T) {
	err := &ConfigurationError{Node: "researcher", Target: "ghost", Candidates: []string{"writer", End}}
	assert.Contains(t, err.Error(), `returned "ghost"`)

	err = &ConfigurationError{Node: "researcher", Reason: "non-deterministic"}
	assert.Equal(t, `router of node "researcher": non-deterministic`, err.Error())
}
