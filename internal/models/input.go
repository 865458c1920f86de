package models

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

func init() {
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = Validate.RegisterValidation("policytype", func(fl validator.FieldLevel) bool {
		_, ok := PolicyTypes[fl.Field().String()]
		return ok
	})
}

// InputError lists the form fields that are missing or invalid.
type InputError struct {
	Fields []string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid or missing fields: %s", strings.Join(e.Fields, ", "))
}

func requireFields(fields map[string]*string) error {
	var missing []string
	for name, v := range fields {
		if v == nil || strings.TrimSpace(*v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &InputError{Fields: missing}
}

func validateInput(in any) error {
	err := Validate.Struct(in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &InputError{Fields: fields}
}
