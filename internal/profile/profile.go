// Package profile validates the student profile intake form.
package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spark-career/spark/internal/catalog"
)

// Field names a form input.
type Field string

const (
	FieldName      Field = "name"
	FieldClass     Field = "class"
	FieldStream    Field = "stream"
	FieldInterests Field = "interests"
	FieldState     Field = "state"
	FieldDistrict  Field = "district"
)

// Fields lists the form inputs in display order.
var Fields = []Field{FieldName, FieldClass, FieldStream, FieldInterests, FieldState, FieldDistrict}

var ErrUnknownField = errors.New("unknown form field")

// ParseField maps an input name to its Field.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownField)
}

// FormData is the raw content of the intake form.
type FormData struct {
	Name      string `json:"name"`
	Class     string `json:"class"`
	Stream    string `json:"stream"`
	Interests string `json:"interests"`
	State     string `json:"state"`
	District  string `json:"district"`
}

// Get returns the value of field.
func (d FormData) Get(f Field) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldClass:
		return d.Class
	case FieldStream:
		return d.Stream
	case FieldInterests:
		return d.Interests
	case FieldState:
		return d.State
	case FieldDistrict:
		return d.District
	}
	return ""
}

func (d *FormData) set(f Field, v string) error {
	switch f {
	case FieldName:
		d.Name = v
	case FieldClass:
		d.Class = v
	case FieldStream:
		d.Stream = v
	case FieldInterests:
		d.Interests = v
	case FieldState:
		d.State = v
	case FieldDistrict:
		d.District = v
	default:
		return fmt.Errorf("%q: %w", f, ErrUnknownField)
	}
	return nil
}

type rule struct {
	field   Field
	trim    bool
	message string
}

// Free-text inputs are checked after trimming; select inputs only need a
// value.
var rules = []rule{
	{FieldName, true, "Name is required"},
	{FieldClass, false, "Class is required"},
	{FieldStream, false, "Stream is required"},
	{FieldInterests, true, "Interests are required"},
	{FieldState, false, "State is required"},
	{FieldDistrict, false, "District is required"},
}

// Validate returns one message per missing field. The map is empty when the
// form is complete.
func Validate(d FormData) map[Field]string {
	errs := make(map[Field]string)
	for _, r := range rules {
		v := d.Get(r.field)
		if r.trim {
			v = strings.TrimSpace(v)
		}
		if v == "" {
			errs[r.field] = r.message
		}
	}
	return errs
}

// Form is the form as held in session state: current values plus the
// errors from the last submit.
type Form struct {
	Data      FormData         `json:"data"`
	Errors    map[Field]string `json:"errors,omitempty"`
	Submitted bool             `json:"submitted"`
}

// Change sets field to value. Changing the state clears the district, and
// only the changed field's error is cleared.
func (f *Form) Change(field Field, value string) error {
	if err := f.Data.set(field, value); err != nil {
		return err
	}
	if field == FieldState {
		f.Data.District = ""
	}
	delete(f.Errors, field)
	return nil
}

// Submit validates the form and records the outcome.
func (f *Form) Submit() bool {
	f.Errors = Validate(f.Data)
	f.Submitted = len(f.Errors) == 0
	return f.Submitted
}

// Options are the choices offered by the select inputs.
type Options struct {
	Classes []catalog.Class `json:"classes"`
	Streams []string        `json:"streams"`
	States  []string        `json:"states"`
}

// OptionsFrom builds the select choices from the content catalog.
func OptionsFrom(c *catalog.Catalog) Options {
	return Options{
		Classes: c.Classes(),
		Streams: c.StreamNames(),
		States:  c.StateNames(),
	}
}
