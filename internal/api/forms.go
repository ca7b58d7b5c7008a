package api

import (
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"

	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
)

// decodeForm fills the exported fields of the struct dst points to from
// values, keyed by each field's `form` tag. Strings are trimmed, empty
// numbers stay zero and unparsable ids become field errors.
func decodeForm(values url.Values, dst any) domainerrors.FieldErrors {
	errs := domainerrors.FieldErrors{}

	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("form"), ",")
		if name == "" || name == "-" || !sf.IsExported() {
			continue
		}
		fv := v.Field(i)

		switch fv.Kind() {
		case reflect.String:
			fv.SetString(strings.TrimSpace(values.Get(name)))
		case reflect.Int64:
			raw := strings.TrimSpace(values.Get(name))
			if raw == "" {
				fv.SetInt(0)
				continue
			}
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 0 {
				errs[name] = "Select a valid choice."
				continue
			}
			fv.SetInt(n)
		case reflect.Slice:
			if sf.Type.Elem().Kind() != reflect.Int64 {
				continue
			}
			ids := make([]int64, 0, len(values[name]))
			for _, raw := range values[name] {
				n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
				if err != nil || n < 0 {
					errs[name] = "Select a valid choice. " + raw + " is not one of the available choices."
					break
				}
				ids = append(ids, n)
			}
			fv.Set(reflect.ValueOf(ids))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Input kinds understood by form.html.
const (
	inputText        = "text"
	inputDate        = "date"
	inputTextarea    = "textarea"
	inputSelect      = "select"
	inputMultiSelect = "multiselect"
)

type option struct {
	Value string
	Label string
}

// formField is one labelled input of a rendered form.
type formField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Selected map[string]bool
	Options  []option
	Required bool
	Help     string
	Error    string
}

// formPage is the content of form.html.
type formPage struct {
	Heading string
	Action  string
	Submit  string
	Cancel  string
	Fields  []formField
	// Error is the message not tied to a single field.
	Error string
}

func textField(name, label, value string, required bool) formField {
	return formField{Name: name, Label: label, Type: inputText, Value: value, Required: required}
}

func textareaField(name, label, value string, required bool) formField {
	return formField{Name: name, Label: label, Type: inputTextarea, Value: value, Required: required}
}

func dateField(name, label, value string) formField {
	return formField{Name: name, Label: label, Type: inputDate, Value: value}
}

func selectField(name, label, selected string, opts []option, required bool) formField {
	if !required {
		opts = append([]option{{Value: "", Label: "---------"}}, opts...)
	}
	return formField{
		Name:     name,
		Label:    label,
		Type:     inputSelect,
		Selected: map[string]bool{selected: true},
		Options:  opts,
		Required: required,
	}
}

func multiSelectField(name, label string, selected []int64, opts []option) formField {
	sel := make(map[string]bool, len(selected))
	for _, id := range selected {
		sel[idString(id)] = true
	}
	return formField{Name: name, Label: label, Type: inputMultiSelect, Selected: sel, Options: opts, Required: true}
}

// withErrors attaches per-field messages and returns the leftover
// form-wide message.
func withErrors(fields []formField, errs domainerrors.FieldErrors) ([]formField, string) {
	if len(errs) == 0 {
		return fields, ""
	}
	known := make(map[string]bool, len(fields))
	for i := range fields {
		known[fields[i].Name] = true
		fields[i].Error = errs[fields[i].Name]
	}

	var rest []string
	for name, msg := range errs {
		if !known[name] {
			rest = append(rest, msg)
		}
	}
	slices.Sort(rest)
	return fields, strings.Join(rest, " ")
}

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
