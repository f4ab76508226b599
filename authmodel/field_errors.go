package authmodel

import (
	"encoding/json"
	"sort"
	"strings"
)

// GeneralField collects errors that are not tied to a single form field.
const GeneralField = "general"

// FieldErrors maps a form field name to its error messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// First returns the first message for field, or "".
func (fe FieldErrors) First(field string) string {
	if msgs := fe[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the field names in sorted order.
func (fe FieldErrors) Fields() []string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (fe FieldErrors) String() string {
	parts := make([]string, 0, len(fe))
	for _, f := range fe.Fields() {
		parts = append(parts, f+": "+strings.Join(fe[f], " "))
	}
	return strings.Join(parts, "; ")
}

// UnmarshalJSON accepts both {"field": ["msg"]} and {"field": "msg"} shapes.
// "detail" and "non_field_errors" are folded into GeneralField.
func (fe *FieldErrors) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := FieldErrors{}
	for field, value := range raw {
		name := field
		if field == "detail" || field == "non_field_errors" {
			name = GeneralField
		}

		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			for _, msg := range list {
				out.Add(name, msg)
			}
			continue
		}

		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			out.Add(name, single)
			continue
		}
		// Nested or numeric values are kept verbatim.
		out.Add(name, string(value))
	}
	*fe = out
	return nil
}
