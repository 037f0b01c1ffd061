package core

import "errors"

// Error taxonomy for the pipeline. TickOutOfOrder, InvalidConfig, and
// InvalidPositionState are structural violations that stop a run;
// InsufficientBalance and PositionTooLarge are treated as skipped
// opportunities rather than fatal errors; OracleCancelled is equivalent to
// a WAIT plan and is never logged as an error.
var (
	ErrTickOutOfOrder      = errors.New("tick out of order")
	ErrInsufficientData    = errors.New("insufficient data")
	ErrInvalidConfig       = errors.New("invalid config")
	ErrInvalidPositionState = errors.New("invalid position state")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPositionTooLarge    = errors.New("position too large")
	ErrOracleCancelled     = errors.New("oracle cancelled")
)
