package backtest

import "fmt"

// DataError reports a series that cannot support the requested evaluation:
// too short, non-monotonic timestamps, or missing fields. Fatal at load
// time, recorded per-combination when a lookback exceeds the history.
type DataError struct {
	Reason string
	Err    error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("data error: %s", e.Reason)
}

func (e *DataError) Unwrap() error { return e.Err }

// InvalidParameterError reports a parameter combination that violates a
// structural invariant. Recorded as a failed result, never fatal.
type InvalidParameterError struct {
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameters: %s", e.Reason)
}

// ComputeError reports an arithmetic fault inside indicator or metrics
// computation that no sentinel policy covers. Caught at the combination
// boundary; sibling evaluations continue.
type ComputeError struct {
	Stage string
	Err   error
}

func (e *ComputeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compute error in %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("compute error in %s", e.Stage)
}

func (e *ComputeError) Unwrap() error { return e.Err }

// InfrastructureError reports a failure of the run machinery itself, such
// as worker pool setup. Always fatal to the whole run.
type InfrastructureError struct {
	Stage string
	Err   error
}

func (e *InfrastructureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("infrastructure error in %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("infrastructure error in %s", e.Stage)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }
