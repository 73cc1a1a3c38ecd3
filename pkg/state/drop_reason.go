package state

import (
	"fmt"
	"time"
)

// DropReason is the closed set of reasons a call can be dropped.
type DropReason interface {
	fmt.Stringer
	dropReason()
}

// ReasonTimeout means the callee did not accept within the configured window.
type ReasonTimeout struct {
	Wait time.Duration
}

func (ReasonTimeout) dropReason() {}
func (r ReasonTimeout) String() string {
	return fmt.Sprintf("Timeout{wait: %s}", r.Wait)
}

// ReasonFailure wraps the error that killed the call.
type ReasonFailure struct {
	Err error
}

func (ReasonFailure) dropReason() {}
func (r ReasonFailure) String() string {
	return fmt.Sprintf("Failure{err: %v}", r.Err)
}

// ReasonRejected means the call was rejected by the given user.
type ReasonRejected struct {
	ByUserID string
}

func (ReasonRejected) dropReason() {}
func (r ReasonRejected) String() string {
	return fmt.Sprintf("Rejected{by: %s}", r.ByUserID)
}

// ReasonCancelled means the call was cancelled by the given user.
type ReasonCancelled struct {
	ByUserID string
}

func (ReasonCancelled) dropReason() {}
func (r ReasonCancelled) String() string {
	return fmt.Sprintf("Cancelled{by: %s}", r.ByUserID)
}

// ReasonEnded means the coordinator reported the call as finished.
type ReasonEnded struct{}

func (ReasonEnded) dropReason()    {}
func (ReasonEnded) String() string { return "Ended" }
