package service

import "errors"

var (
	// ErrStageNotAllowed indicates the caller's role may not edit the
	// requested target stage. Recoverable; shown to the user, never retried.
	ErrStageNotAllowed = errors.New("stage not allowed for this role")

	// ErrNoNextStage indicates an advance was requested on an item already
	// in the terminal stage.
	ErrNoNextStage = errors.New("already at the last stage")

	// ErrUnknownStage indicates a target stage id that is not part of the
	// shared catalog. Tenant-local stage references must be translated
	// before they reach the transition engine.
	ErrUnknownStage = errors.New("unknown production stage")
)
