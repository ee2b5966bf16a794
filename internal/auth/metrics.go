// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package auth

// Operation names reported to a Recorder.
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpRefresh  = "refresh"
	OpLogout   = "logout"
)

// Outcomes reported to a Recorder. A failure is an expected domain failure;
// an error is anything else.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Recorder receives one observation per session operation.
type Recorder interface {
	RecordAuthOperation(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuthOperation(string, string) {}
