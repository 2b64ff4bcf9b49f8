// Package jsonx encodes result structs whose float fields may hold NaN or
// ±Inf. encoding/json refuses those values; here they become null.
package jsonx

import (
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"
)

var (
	marshalerType     = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// Sanitize returns a JSON-ready tree equivalent to v with every non-finite
// float replaced by nil. Struct tags are honoured (rename, omitempty, "-").
// Values that marshal themselves are passed through untouched.
func Sanitize(v any) any {
	if v == nil {
		return nil
	}
	return sanitize(reflect.ValueOf(v))
}

// Marshal is json.Marshal after Sanitize
func Marshal(v any) ([]byte, error) {
	return json.Marshal(Sanitize(v))
}

// MarshalIndent is json.MarshalIndent after Sanitize
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(Sanitize(v), prefix, indent)
}

// Encode writes v to w as indented JSON followed by a newline
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Sanitize(v))
}

func sanitize(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface &&
		(v.Type().Implements(marshalerType) || v.Type().Implements(textMarshalerType)) {
		return v.Interface()
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return sanitize(v.Elem())
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case reflect.Struct:
		return sanitizeStruct(v)
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Interface()
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = sanitize(v.Index(i))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = sanitize(iter.Value())
		}
		return out
	default:
		return v.Interface()
	}
}

func sanitizeStruct(v reflect.Value) map[string]any {
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := parseTag(field)
		if skip {
			continue
		}
		fv := v.Field(i)
		if field.Anonymous && field.Tag.Get("json") == "" && fv.Kind() == reflect.Struct {
			for k, val := range sanitizeStruct(fv) {
				out[k] = val
			}
			continue
		}
		if omitEmpty && fv.IsZero() {
			continue
		}
		if omitEmpty && (fv.Kind() == reflect.Slice || fv.Kind() == reflect.Map) && fv.Len() == 0 {
			continue
		}
		out[name] = sanitize(fv)
	}
	return out
}

func parseTag(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	for _, o := range strings.Split(opts, ",") {
		if o == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		if b, err := tm.MarshalText(); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(k.Interface())
}
