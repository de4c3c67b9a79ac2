package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/beaverport/internal/exportfile"
	"github.com/mesh-intelligence/beaverport/pkg/types"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitOK},
		{name: "explicit code wins", err: withCode(exitUsage, &types.RemoteOperationError{}), want: exitUsage},
		{name: "conflict", err: &types.ConfigurationConflictError{Overlap: []string{"a"}}, want: exitUsage},
		{name: "existing output", err: fmt.Errorf("%w: x", exportfile.ErrExists), want: exitUsage},
		{name: "schema", err: &types.SchemaVersionError{Found: 2}, want: exitSchema},
		{name: "bad activity data", err: fmt.Errorf("activity 1: %w", types.ErrInvalidActivityData), want: exitSchema},
		{name: "missing externals", err: &types.MissingExternalDependencyError{}, want: exitGraph},
		{name: "cycle", err: fmt.Errorf("subjects: %w", &types.CyclicOrDanglingGraphError{}), want: exitGraph},
		{name: "remote", err: &types.RemoteOperationError{Status: 500}, want: exitRemote},
		{name: "not authenticated", err: types.ErrNotAuthenticated, want: exitRemote},
		{name: "invariant", err: &types.InvariantViolationError{}, want: exitInternal},
		{name: "overflow", err: types.ErrIDOverflow, want: exitInternal},
		{name: "aborted", err: errAborted, want: exitFailure},
		{name: "other", err: errors.New("boom"), want: exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestWithCodeNil(t *testing.T) {
	assert.NoError(t, withCode(exitUsage, nil))
}
