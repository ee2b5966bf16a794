// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/samber/oops"

	"github.com/accountd/accountd/pkg/errutil"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// ErrPayloadTooLarge is returned for bodies over maxBodyBytes.
var ErrPayloadTooLarge = errutil.NewFailure(
	"PAYLOAD_TOO_LARGE", "Request body is too large", http.StatusRequestEntityTooLarge)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email     string  `json:"email" jsonschema:"format=email,maxLength=254"`
	Password  string  `json:"password" jsonschema:"minLength=6,maxLength=20"`
	FirstName string  `json:"firstName" jsonschema:"minLength=2,maxLength=100"`
	LastName  string  `json:"lastName" jsonschema:"minLength=2,maxLength=100"`
	BirthDate string  `json:"birthDate" jsonschema:"format=date"`
	Bio       *string `json:"bio,omitempty" jsonschema:"maxLength=1000"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" jsonschema:"format=email"`
	Password string `json:"password" jsonschema:"minLength=1"`
}

// UpdateProfileRequest is the body of PUT /users/{userId}. Absent fields are
// left unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty" jsonschema:"minLength=2,maxLength=100"`
	LastName  *string `json:"lastName,omitempty" jsonschema:"minLength=2,maxLength=100"`
	BirthDate *string `json:"birthDate,omitempty" jsonschema:"format=date"`
	Bio       *string `json:"bio,omitempty" jsonschema:"maxLength=1000"`
}

// decode reads a capped JSON body, validates it against schema and decodes
// it into dst, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, schema *RequestSchema, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return oops.Code(ErrPayloadTooLarge.Code).With("limit", tooLarge.Limit).Wrap(ErrPayloadTooLarge)
		}
		return oops.Code("REQUEST_READ_FAILED").Wrap(err)
	}

	if err := schema.Validate(body); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errutil.InvalidField("", "Request body does not match the expected shape")
	}
	return nil
}
