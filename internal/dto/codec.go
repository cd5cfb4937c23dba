// Package dto converts between stored rows and their wire representation.
package dto

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Additional-Code/depot/internal/entity"
	"github.com/Additional-Code/depot/pkg/errorbank"
)

// References reports whether a referenced row exists. model is a typed nil
// pointer naming the table.
type References interface {
	Exists(ctx context.Context, model any, id int64) (bool, error)
}

// Codec maps one resource type between its stored and wire forms.
type Codec[M any] interface {
	// Decode validates body and applies it to dst only when it is valid.
	// A partial decode starts from dst's current values so omitted fields
	// keep them; otherwise omitted fields take their defaults.
	Decode(ctx context.Context, body []byte, dst *M, partial bool, refs References) error
	// Encode renders m. Relations needed for the wire form must be loaded.
	Encode(m *M) any
}

const nonFieldErrors = "non_field_errors"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// binding accumulates field errors across decoding, rule validation and
// reference checks so a single response reports all of them.
type binding struct {
	fields  map[string][]string
	present map[string]bool
}

func (b *binding) add(field, msg string) {
	if b.fields == nil {
		b.fields = make(map[string][]string)
	}
	b.fields[field] = append(b.fields[field], msg)
}

func (b *binding) has(field string) bool {
	return len(b.fields[field]) > 0
}

// provided reports whether the decoded body carried field as a key.
func (b *binding) provided(field string) bool {
	return b.present[field]
}

// decode applies body on top of in. Syntax errors abort with a plain bad
// request; type mismatches are recorded per field.
func (b *binding) decode(body []byte, in any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	err := json.Unmarshal(body, in)
	if err == nil {
		b.inspect(body, in)
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			b.add(nonFieldErrors, fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", typeErr.Value))
			return nil
		}
		field, _, _ := strings.Cut(typeErr.Field, ".")
		b.add(field, typeMessage(typeErr.Type))
		b.inspect(body, in)
		return nil
	}
	return errorbank.BadRequest("JSON parse error - "+err.Error(), errorbank.WithCause(err))
}

// inspect records the keys body carries and rejects null for fields that
// cannot hold it. json.Unmarshal leaves such fields untouched on null.
func (b *binding) inspect(body []byte, in any) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return
	}
	nullable := nullableFields(reflect.TypeOf(in).Elem())
	b.present = make(map[string]bool, len(raw))
	for name, value := range raw {
		b.present[name] = true
		allowed, known := nullable[name]
		if known && !allowed && !b.has(name) && bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			b.add(name, "This field may not be null.")
		}
	}
}

// nullableFields maps each json field of struct t to whether it accepts
// null: only optional pointer fields do.
func nullableFields(t reflect.Type) map[string]bool {
	out := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		rules := f.Tag.Get("validate")
		out[name] = f.Type.Kind() == reflect.Pointer && rules != "required" && !strings.HasPrefix(rules, "required,")
	}
	return out
}

// requireList reports a list field that is missing or empty.
func (b *binding) requireList(field string, ids []int64) {
	switch {
	case b.has(field):
	case ids == nil:
		b.add(field, "This field is required.")
	case len(ids) == 0:
		b.add(field, "This list may not be empty.")
	}
}

func (b *binding) validate(in any) {
	err := validate.Struct(in)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		b.add(nonFieldErrors, err.Error())
		return
	}
	for _, fe := range verrs {
		field, _, _ := strings.Cut(fe.Field(), "[")
		if b.has(field) {
			continue
		}
		b.add(field, ruleMessage(fe))
	}
}

// exists records an error under field for every id that does not resolve.
// Fields that already failed are skipped.
func (b *binding) exists(ctx context.Context, refs References, field string, model any, ids ...int64) error {
	if b.has(field) {
		return nil
	}
	for _, id := range ids {
		ok, err := refs.Exists(ctx, model, id)
		if err != nil {
			return errorbank.Internal("failed to resolve "+field, errorbank.WithCause(err))
		}
		if !ok {
			b.add(field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}
	return nil
}

func (b *binding) err() error {
	if len(b.fields) == 0 {
		return nil
	}
	return errorbank.Validation(b.fields)
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "datetime":
		return "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	default:
		return fmt.Sprintf("Failed the %q rule.", fe.Tag())
	}
}

func typeMessage(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "Not a valid string."
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "A valid integer is required."
	case reflect.Slice:
		return "Expected a list of items."
	default:
		return "Invalid value."
	}
}

func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	d, err := time.Parse(entity.DateLayout, *s)
	if err != nil {
		return nil
	}
	return &d
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(entity.DateLayout)
	return &s
}

func ownerName(u *entity.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
