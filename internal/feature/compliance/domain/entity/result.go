package entity

// ErrorKind categorizes a failed operation for the transport layer.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindInput is a caller-input error rejected before dispatch.
	KindInput
	// KindState means the operation's prerequisite state does not exist yet.
	KindState
	// KindFailure is a fatal failure of the deterministic path or a collaborator.
	KindFailure
)

// DispatchPath tells which strategy produced a dispatched result.
type DispatchPath string

const (
	PathNone     DispatchPath = ""
	PathPlanned  DispatchPath = "planned"
	PathFallback DispatchPath = "fallback"
	PathFailed   DispatchPath = "failed"
)

// OperationResult is what every user-facing operation returns. Error carries a
// plain-language message and is empty when Success is true.
type OperationResult struct {
	Success    bool
	Message    string
	Regulation RegulationCode
	Report     string
	Chunks     int
	Files      []string
	Detail     string // supplementary output, e.g. the smoke-test tool result
	Error      string
	Kind       ErrorKind
	Path       DispatchPath
}
