package metadata

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Inspect builds a DocTypeDef from a Go struct.
//
// Field names come from json tags. The desk type comes from the `frappe` tag
// ("Link,Item" or "Table,Item Label Reference") and otherwise from the Go type.
// `binding:"required"` marks a field mandatory and `frappe:",read_only"` read only.
// Struct slices must carry a Table tag naming the child doctype.
func Inspect(v any, name string) DocTypeDef {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if name == "" {
		name = t.Name()
	}

	def := DocTypeDef{Name: name}
	inspectStruct(t, &def)
	return def
}

func inspectStruct(t reflect.Type, def *DocTypeDef) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		if field.Anonymous {
			inspectStruct(field.Type, def)
			continue
		}

		fname := jsonName(field)
		if fname == "-" {
			continue
		}

		fDef := FieldDef{
			Fieldname: fname,
			Label:     guessLabel(fname),
			Reqd:      isRequired(field),
		}
		ftype, options, readOnly := parseFrappeTag(field)
		fDef.ReadOnly = readOnly
		if ftype != "" {
			fDef.Fieldtype = ftype
			fDef.Options = options
		} else {
			fDef.Fieldtype = mapFieldType(field.Type)
		}
		def.Fields = append(def.Fields, fDef)
	}
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

func mapFieldType(t reflect.Type) FieldType {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return TypeDate
	case decimalType:
		return TypeCurrency
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInt
	case reflect.Float32, reflect.Float64:
		return TypeFloat
	case reflect.Bool:
		return TypeCheck
	default:
		return TypeData
	}
}

func parseFrappeTag(field reflect.StructField) (FieldType, string, bool) {
	tag, ok := field.Tag.Lookup("frappe")
	if !ok {
		return "", "", false
	}
	parts := strings.Split(tag, ",")
	var (
		options  string
		readOnly bool
	)
	for _, p := range parts[1:] {
		if p == "read_only" {
			readOnly = true
			continue
		}
		options = p
	}
	return FieldType(parts[0]), options, readOnly
}

func jsonName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			return parts[0]
		}
	}
	return toSnake(field.Name)
}

func isRequired(field reflect.StructField) bool {
	if tag, ok := field.Tag.Lookup("binding"); ok {
		return strings.Contains(tag, "required")
	}
	return false
}

// guessLabel turns "price_list_rate" into "Price List Rate".
func guessLabel(fieldname string) string {
	words := strings.Split(fieldname, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
