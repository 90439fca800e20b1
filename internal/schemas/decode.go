package schemas

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DecodeError is returned when schema-valid JSON still cannot be decoded into the target type.
type DecodeError struct {
	Schema string
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s document: %v", e.Schema, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// DecodeStrict validates raw against the named schema and then decodes it into v,
// rejecting unknown fields and trailing data. Callers should decode into a fresh value
// and discard it on error.
func DecodeStrict(name, raw string, v interface{}) error {
	if err := ValidateNamed(name, raw); err != nil {
		return err
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &DecodeError{Schema: name, Cause: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return &DecodeError{Schema: name, Cause: fmt.Errorf("unexpected trailing data after JSON value")}
	}
	return nil
}
