// Package bridgeerrors contains all common errors used by the bridge.
package bridgeerrors

import (
	"errors"
	"fmt"
)

var ErrNotReady = fmt.Errorf("the listonic session is not ready")
var ErrIdentityTokenUnavailable = fmt.Errorf("the identity provider token is not available")
var ErrIdentityRefreshUnavailable = fmt.Errorf("the identity provider refresh token is not available, please reauthenticate")
var ErrOperationFailed = fmt.Errorf("the listonic operation failed")
var ErrValidation = fmt.Errorf("the command parameters are invalid")
var ErrEntryNotFound = fmt.Errorf("the connection entry cannot be found")
var ErrMissingDBResource = fmt.Errorf("the requested resource cannot be found in the DB")
var ErrEntityNotFound = fmt.Errorf("the todo list entity cannot be found")

// NotReadyError is returned when no service access token can be obtained. Callers should retry later.
type NotReadyError struct {
	Reason string
	Status int
	Body   string
	Err    error
}

func (e *NotReadyError) Error() string {
	msg := "not ready: " + e.Reason
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: %d %s", msg, e.Status, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}

func (e *NotReadyError) Unwrap() error {
	return e.Err
}

// OperationError is returned when a listonic endpoint answers with a status the operation does not accept.
type OperationError struct {
	Operation string
	Status    int
	Body      string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed: %d %s", e.Operation, e.Status, e.Body)
}

func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed
}

// ValidationError is returned before any network call when a required command parameter is missing.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Param, e.Message)
	}
	return fmt.Sprintf("%s is required", e.Param)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NotReady(reason string, err error) error {
	return &NotReadyError{Reason: reason, Err: err}
}

func Missing(param string) error {
	return &ValidationError{Param: param}
}

// StatusOf returns the HTTP status carried by an operation or not ready error, 0 otherwise.
func StatusOf(err error) int {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Status
	}
	var nrErr *NotReadyError
	if errors.As(err, &nrErr) {
		return nrErr.Status
	}
	return 0
}
