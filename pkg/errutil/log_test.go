// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/pkg/errutil"
)

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("USER_GET_BY_ID_FAILED").
		With("user_id", "01J0000000000000000000000").
		Errorf("connection reset")

	errutil.LogError(logger, "lookup failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "lookup failed", logEntry["msg"])
	assert.Equal(t, "USER_GET_BY_ID_FAILED", logEntry["code"])
	assert.Contains(t, logEntry["context"], "user_id")
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "lookup failed", errors.New("standard error"))

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "standard error")
	assert.NotContains(t, logEntry, "code")
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "X", errutil.CodeOf(oops.Code("X").Errorf("x")))
	assert.Empty(t, errutil.CodeOf(oops.Errorf("no code")))
	assert.Empty(t, errutil.CodeOf(errors.New("plain")))
}
