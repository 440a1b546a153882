// Package errors defines the error taxonomy shared across the collaboration
// server (§7 of the specification): each kind carries the handling action
// (close the connection, log+drop, or silently ignore) in its type identity
// rather than in ad-hoc string matching at call sites.
package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"
)

// protocolMarker is implemented by every error type whose handling action is
// "close the offending connection" so callers can classify with errors.As.
type protocolMarker interface {
	error
	isProtocol()
}

// ProtocolError covers unknown type tags, field-type mismatches, invalid
// lengths, and other wire-level violations. Action: close connection.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("protocol error: %s", e.Op)
	}
	return fmt.Sprintf("protocol error: %s: %v", e.Op, e.Err)
}
func (e *ProtocolError) Unwrap() error { return e.Err }
func (e *ProtocolError) isProtocol()   {}

// FrameError indicates a Frame Codec failure: a declared length exceeding
// the sanity bound (OversizedField), or a failed or short frame write. A
// short read buffer is not an error and never produces one.
type FrameError struct {
	Op  string
	Err error
}

func (e *FrameError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("frame error: %s", e.Op)
	}
	return fmt.Sprintf("frame error: %s: %v", e.Op, e.Err)
}
func (e *FrameError) Unwrap() error { return e.Err }
func (e *FrameError) isProtocol()   {}

// RoleViolation indicates a message arrived from a connection whose role
// does not permit it (e.g. UpdateHeadset from a tablet). Action: close.
type RoleViolation struct {
	Op       string
	Expected string
	Got      string
}

func (e *RoleViolation) Error() string {
	return fmt.Sprintf("role violation: %s: expected %s, got %s", e.Op, e.Expected, e.Got)
}
func (e *RoleViolation) isProtocol() {}

// UnknownTarget indicates a reference to a dataset or subdataset ID that
// does not exist. Action: log warning, drop message, connection stays open.
type UnknownTarget struct {
	DatasetID    uint32
	SubDatasetID uint32
	HasSD        bool
}

func (e *UnknownTarget) Error() string {
	if e.HasSD {
		return fmt.Sprintf("unknown target: dataset=%d subdataset=%d", e.DatasetID, e.SubDatasetID)
	}
	return fmt.Sprintf("unknown target: dataset=%d", e.DatasetID)
}

// PermissionDenied indicates canModify returned false. Action: silently
// ignore (no mutation, no fan-out, no disconnect). Modeled as a distinct
// type purely so handlers and metrics can count it without string matching.
type PermissionDenied struct {
	HeadsetID string
	DatasetID uint32
	SDID      uint32
}

func (e *PermissionDenied) Error() string {
	return fmt.Sprintf("permission denied: headset=%s dataset=%d subdataset=%d", e.HeadsetID, e.DatasetID, e.SDID)
}

// DatasetLoadFailure indicates an external dataset parser rejected a file.
// Action: log, drop the Add message, no fan-out.
type DatasetLoadFailure struct {
	Name string
	Err  error
}

func (e *DatasetLoadFailure) Error() string {
	return fmt.Sprintf("dataset load failure: %s: %v", e.Name, e.Err)
}
func (e *DatasetLoadFailure) Unwrap() error { return e.Err }

// AnchorFailure indicates the anchor provider reported ok=false or
// disconnected mid-round. Action: reset buffer, re-elect.
type AnchorFailure struct {
	Reason string
}

func (e *AnchorFailure) Error() string { return fmt.Sprintf("anchor failure: %s", e.Reason) }

// TimeoutError indicates an operation exceeded a deadline or idle timeout.
type TimeoutError struct {
	Op       string
	Duration time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (after %s)", e.Op, e.Duration)
	if e.Err != nil {
		return base + ": " + e.Err.Error()
	}
	return base
}
func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout returns true if err is (or wraps) a TimeoutError, a context
// deadline exceeded, or any error type exposing Timeout() bool == true.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if stdErrors.As(err, &te) {
		return true
	}
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var toErr interface{ Timeout() bool }
	if stdErrors.As(err, &toErr) && toErr.Timeout() {
		return true
	}
	return false
}

// IsProtocolError returns true if the error chain contains a connection-closing
// protocol-layer error (ProtocolError, FrameError, RoleViolation).
func IsProtocolError(err error) bool {
	if err == nil {
		return false
	}
	var pm protocolMarker
	return stdErrors.As(err, &pm)
}

// IsUnknownTarget reports whether err is an UnknownTarget.
func IsUnknownTarget(err error) bool {
	var ut *UnknownTarget
	return stdErrors.As(err, &ut)
}

// IsPermissionDenied reports whether err is a PermissionDenied.
func IsPermissionDenied(err error) bool {
	var pd *PermissionDenied
	return stdErrors.As(err, &pd)
}

// Constructors.
func NewProtocolError(op string, cause error) error { return &ProtocolError{Op: op, Err: cause} }
func NewFrameError(op string, cause error) error    { return &FrameError{Op: op, Err: cause} }
func NewRoleViolation(op, expected, got string) error {
	return &RoleViolation{Op: op, Expected: expected, Got: got}
}
func NewUnknownTarget(datasetID uint32, sdID uint32, hasSD bool) error {
	return &UnknownTarget{DatasetID: datasetID, SubDatasetID: sdID, HasSD: hasSD}
}
func NewPermissionDenied(headsetID string, datasetID, sdID uint32) error {
	return &PermissionDenied{HeadsetID: headsetID, DatasetID: datasetID, SDID: sdID}
}
func NewDatasetLoadFailure(name string, cause error) error {
	return &DatasetLoadFailure{Name: name, Err: cause}
}
func NewAnchorFailure(reason string) error { return &AnchorFailure{Reason: reason} }
func NewTimeoutError(op string, d time.Duration, cause error) error {
	return &TimeoutError{Op: op, Duration: d, Err: cause}
}
