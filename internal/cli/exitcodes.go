package cli

import (
	"errors"

	"github.com/mesh-intelligence/beaverport/internal/exportfile"
	"github.com/mesh-intelligence/beaverport/pkg/types"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitSchema   = 3
	exitGraph    = 4
	exitRemote   = 5
	exitInternal = 6
)

// errAborted is returned when the user declines a confirmation.
var errAborted = errors.New("aborted")

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// exitCode returns the process exit code for err. An explicit code attached
// with withCode wins; otherwise the error is classified by type.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return classify(err)
}

func classify(err error) int {
	var (
		schema   *types.SchemaVersionError
		missing  *types.MissingExternalDependencyError
		graph    *types.CyclicOrDanglingGraphError
		remote   *types.RemoteOperationError
		conflict *types.ConfigurationConflictError
		invalid  *types.InvariantViolationError
	)
	switch {
	case errors.As(err, &conflict), errors.Is(err, exportfile.ErrExists):
		return exitUsage
	case errors.As(err, &schema),
		errors.Is(err, types.ErrInvalidExport),
		errors.Is(err, types.ErrInvalidActivityData),
		errors.Is(err, types.ErrUnknownIssueReference):
		return exitSchema
	case errors.As(err, &missing), errors.As(err, &graph):
		return exitGraph
	case errors.As(err, &remote), errors.Is(err, types.ErrNotAuthenticated):
		return exitRemote
	case errors.As(err, &invalid),
		errors.Is(err, types.ErrEncode),
		errors.Is(err, types.ErrDecode),
		errors.Is(err, types.ErrZeroOffset),
		errors.Is(err, types.ErrIDOverflow):
		return exitInternal
	default:
		return exitFailure
	}
}
