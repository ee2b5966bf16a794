// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"github.com/samber/oops"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/accountd/accountd/pkg/errutil"
)

const schemaBaseURL = "https://accountd.dev/schemas/"

// RequestSchema is the JSON Schema of one request body, reflected from its
// Go type and compiled on first use.
type RequestSchema struct {
	name   string
	title  string
	target any

	once     sync.Once
	compiled *jschema.Schema
	err      error
}

var (
	registerSchema      = &RequestSchema{name: "register-request", title: "Register request", target: &RegisterRequest{}}
	loginSchema         = &RequestSchema{name: "login-request", title: "Login request", target: &LoginRequest{}}
	updateProfileSchema = &RequestSchema{name: "update-profile-request", title: "Update profile request", target: &UpdateProfileRequest{}}
)

// RequestSchemas returns every request body schema.
func RequestSchemas() []*RequestSchema {
	return []*RequestSchema{registerSchema, loginSchema, updateProfileSchema}
}

// Name is the schema's file stem.
func (s *RequestSchema) Name() string {
	return s.name
}

// ID is the schema's $id.
func (s *RequestSchema) ID() string {
	return schemaBaseURL + s.name + ".schema.json"
}

// Generate returns the schema document.
func (s *RequestSchema) Generate() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(s.target)
	schema.ID = jsonschema.ID(s.ID())
	schema.Title = s.title

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATE_FAILED").With("schema", s.name).Wrap(err)
	}
	return data, nil
}

// Validate checks a JSON body against the schema. Field problems are
// returned as a *validationError.
func (s *RequestSchema) Validate(body []byte) error {
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return errutil.InvalidField("", "Request body must be valid JSON")
	}
	sch, err := s.schema()
	if err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		var ve *jschema.ValidationError
		if !errors.As(err, &ve) {
			return oops.Code("SCHEMA_VALIDATE_FAILED").With("schema", s.name).Wrap(err)
		}
		return &validationError{details: describe(ve)}
	}
	return nil
}

func (s *RequestSchema) schema() (*jschema.Schema, error) {
	s.once.Do(func() {
		raw, err := s.Generate()
		if err != nil {
			s.err = err
			return
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			s.err = oops.Code("SCHEMA_COMPILE_FAILED").With("schema", s.name).Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		c.AssertFormat()
		if err := c.AddResource(s.ID(), doc); err != nil {
			s.err = oops.Code("SCHEMA_COMPILE_FAILED").With("schema", s.name).Wrap(err)
			return
		}
		s.compiled, s.err = c.Compile(s.ID())
		if s.err != nil {
			s.err = oops.Code("SCHEMA_COMPILE_FAILED").With("schema", s.name).Wrap(s.err)
		}
	})
	return s.compiled, s.err
}

var printer = message.NewPrinter(language.English)

// describe flattens a validation error tree into one detail per leaf.
func describe(ve *jschema.ValidationError) []ErrorDetail {
	var details []ErrorDetail
	var walk func(*jschema.ValidationError)
	walk = func(e *jschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				walk(c)
			}
			return
		}
		field := strings.Join(e.InstanceLocation, ".")
		switch k := e.ErrorKind.(type) {
		case *kind.Required:
			for _, name := range k.Missing {
				details = append(details, detail(joinField(field, name), name+" is required"))
			}
			return
		case *kind.AdditionalProperties:
			for _, name := range k.Properties {
				details = append(details, detail(joinField(field, name), "property "+name+" should not exist"))
			}
			return
		}
		details = append(details, detail(field, e.ErrorKind.LocalizedString(printer)))
	}
	walk(ve)
	return details
}

func detail(field, msg string) ErrorDetail {
	return ErrorDetail{Message: msg, Code: errutil.CodeValidation, Field: field}
}

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
