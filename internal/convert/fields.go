// Package convert maps domain types to and from google.protobuf.Struct payloads.
package convert

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Fields reads typed values out of a Struct. Missing keys yield zero values.
type Fields struct{ m map[string]*structpb.Value }

// Read wraps s; a nil Struct reads as empty.
func Read(s *structpb.Struct) Fields { return Fields{m: s.GetFields()} }

// Has reports whether the key is present.
func (f Fields) Has(k string) bool { _, ok := f.m[k]; return ok }

// String returns the string at k.
func (f Fields) String(k string) string { return f.m[k].GetStringValue() }

// Bool returns the bool at k.
func (f Fields) Bool(k string) bool { return f.m[k].GetBoolValue() }

// Int returns the number at k truncated to int64.
func (f Fields) Int(k string) int64 { return int64(f.m[k].GetNumberValue()) }

// Struct returns the nested object at k, or nil.
func (f Fields) Struct(k string) *structpb.Struct { return f.m[k].GetStructValue() }

// List returns the list items at k.
func (f Fields) List(k string) []*structpb.Value { return f.m[k].GetListValue().GetValues() }

// Time parses an RFC 3339 timestamp; empty or malformed values give the zero time.
func (f Fields) Time(k string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, f.String(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

func ts(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Struct builds a payload from plain Go values, as accepted by structpb.NewValue.
func Struct(m map[string]any) (*structpb.Struct, error) { return structpb.NewStruct(m) }
