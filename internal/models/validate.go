package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator for record shapes and form inputs.
var Validate = validator.New(validator.WithRequiredStructEnabled())

// ErrShape is returned when a payload does not match the expected record shape.
var ErrShape = errors.New("unexpected record shape")

// DecodeStrict decodes a single JSON record into v, rejecting unknown fields,
// and validates it.
func DecodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrShape, err)
	}

	if err := Validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", ErrShape, describe(err))
	}

	return nil
}

// DecodeList decodes a JSON array of records. One malformed element fails the
// whole list.
func DecodeList[T any](data []byte) ([]T, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: expected a list: %v", ErrShape, err)
	}

	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var rec T
		if err := DecodeStrict(item, &rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}

	return out, nil
}

// DecodeOne decodes and validates a single record.
func DecodeOne[T any](data []byte) (*T, error) {
	var rec T
	if err := DecodeStrict(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
