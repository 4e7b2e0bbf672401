package errors

// Predeclared domain errors shared across the board, widget, and gateway layers.
// Matched with errors.Is via AppError.Is (type + code).

var (
	// Board errors
	ErrBoardNotLoaded = NewConflictError(
		"board has not completed its initial load",
	).WithCode("BOARD_NOT_LOADED")

	ErrNodeNotFound = NewNotFoundError("node").WithCode("NODE_NOT_FOUND")

	ErrEdgeNotFound = NewNotFoundError("edge").WithCode("EDGE_NOT_FOUND")

	ErrDuplicateNode = NewConflictError(
		"a node with this id already exists on the board",
	).WithCode("DUPLICATE_NODE")

	ErrDuplicateEdge = NewConflictError(
		"an edge between these nodes already exists",
	).WithCode("DUPLICATE_EDGE")

	ErrSelfEdge = NewValidationError(
		"cannot connect a node to itself",
	).WithCode("SELF_EDGE")

	// Snapshot errors
	ErrSnapshotCorrupt = NewParseError(
		"stored snapshot is not valid JSON", nil,
	).WithCode("SNAPSHOT_CORRUPT")

	// Remote entity errors
	ErrEntityNotFound = NewNotFoundError("remote entity").WithCode("ENTITY_NOT_FOUND")

	ErrNotOwner = NewForbiddenError(
		"only the owner may perform this action",
	).WithCode("NOT_OWNER")

	ErrCSRFMissing = NewUnauthorizedError(
		"csrf token missing after priming request",
	).WithCode("CSRF_MISSING")

	// Widget errors
	ErrInvalidTransition = NewValidationError(
		"widget view-state transition not permitted",
	).WithCode("INVALID_TRANSITION")

	ErrNotBound = NewConflictError(
		"node is not bound to a remote entity",
	).WithCode("NOT_BOUND")

	ErrAlreadyBound = NewConflictError(
		"node is already bound to a remote entity",
	).WithCode("ALREADY_BOUND")
)
