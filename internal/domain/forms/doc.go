// Package forms provides document records and the form event registry.
package forms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"erpdesk/internal/core/apperror"
	"erpdesk/internal/core/types"
	"erpdesk/internal/metadata"
)

// Schemas resolves doctype definitions.
type Schemas interface {
	DocType(name string) (metadata.DocTypeDef, bool)
}

// standardFields are carried by every document and are not part of a schema.
var standardFields = map[string]bool{
	"name": true, "doctype": true, "docstatus": true, "idx": true,
	"parent": true, "parentfield": true, "parenttype": true, "amended_from": true,
	"owner": true, "creation": true, "modified": true, "modified_by": true,
}

func isStandard(key string) bool {
	return standardFields[key] || strings.HasPrefix(key, "_")
}

// record is the field storage shared by documents and rows.
type record struct {
	schema metadata.DocTypeDef
	fields map[string]any
	extra  map[string]any
}

func newRecord(schema metadata.DocTypeDef) record {
	return record{schema: schema, fields: map[string]any{}, extra: map[string]any{}}
}

// Get returns a field value, nil when unset.
func (r *record) Get(field string) any {
	return r.fields[field]
}

// String returns a field value as text.
func (r *record) String(field string) string {
	switch v := r.fields[field].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Money returns a currency field. ok is false when the field is empty.
func (r *record) Money(field string) (types.Money, bool, error) {
	m, ok, err := types.MoneyFromAny(r.fields[field])
	if err != nil {
		return types.Zero(), false, fmt.Errorf("%s.%s: %w", r.schema.Name, field, err)
	}
	return m, ok, nil
}

// Set writes a field declared by the schema. Table fields are not settable.
func (r *record) Set(field string, value any) error {
	def, ok := r.schema.Field(field)
	if !ok || def.Fieldtype == metadata.TypeTable {
		return apperror.NewUnknownField(r.schema.Name, field)
	}
	r.fields[field] = value
	return nil
}

// Extra returns a value decoded from a key outside the schema.
func (r *record) Extra(key string) (any, bool) {
	v, ok := r.extra[key]
	return v, ok
}

// Fields returns a copy of the schema fields.
func (r *record) Fields() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// load decodes site JSON. Keys outside the schema (standard, naming and
// custom fields) are kept in extra and written back unchanged.
func (r *record) load(raw map[string]json.RawMessage, skip func(string) bool) error {
	for key, val := range raw {
		if skip != nil && skip(key) {
			continue
		}
		var v any
		dec := json.NewDecoder(bytes.NewReader(val))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("%s.%s: %w", r.schema.Name, key, err)
		}
		if _, declared := r.schema.Field(key); !declared || isStandard(key) {
			r.extra[key] = v
			continue
		}
		if err := r.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

// Row is a child table record. Name is the row id (cdn).
type Row struct {
	record
	Doctype     string
	Name        string
	Idx         int
	Parentfield string
}

// Doc is a document with its child tables, validated against its schema.
type Doc struct {
	record
	Doctype   string
	Name      string
	Docstatus int

	schemas Schemas
	tables  map[string][]*Row
}

// NewDoc creates an empty document of doctype.
func NewDoc(schemas Schemas, doctype string) (*Doc, error) {
	schema, ok := schemas.DocType(doctype)
	if !ok {
		return nil, apperror.NewNotFound("doctype", doctype)
	}
	return &Doc{
		record:  newRecord(schema),
		Doctype: doctype,
		schemas: schemas,
		tables:  make(map[string][]*Row),
	}, nil
}

// Schema returns the document's doctype definition.
func (d *Doc) Schema() metadata.DocTypeDef {
	return d.schema
}

// AddRow appends a row to a child table. An empty name gets a generated one.
func (d *Doc) AddRow(table, name string, fields map[string]any) (*Row, error) {
	tdef, ok := d.schema.Field(table)
	if !ok || tdef.Fieldtype != metadata.TypeTable {
		return nil, apperror.NewUnknownField(d.Doctype, table)
	}
	child, ok := d.schemas.DocType(tdef.Options)
	if !ok {
		return nil, apperror.NewNotFound("doctype", tdef.Options)
	}

	rows := d.tables[table]
	if name == "" {
		name = fmt.Sprintf("new-%s-%d", strings.ReplaceAll(strings.ToLower(child.Name), " ", "-"), len(rows)+1)
	}
	if _, _, exists := d.FindRow(name); exists {
		return nil, apperror.NewDuplicate("row", "name", name)
	}
	row := &Row{
		record:      newRecord(child),
		Doctype:     child.Name,
		Name:        name,
		Idx:         len(rows) + 1,
		Parentfield: table,
	}
	for k, v := range fields {
		if err := row.Set(k, v); err != nil {
			return nil, err
		}
	}
	d.tables[table] = append(rows, row)
	return row, nil
}

// Table returns the rows of a child table in order.
func (d *Doc) Table(table string) []*Row {
	return d.tables[table]
}

// FindRow locates a row by name across all child tables.
func (d *Doc) FindRow(name string) (string, *Row, bool) {
	for table, rows := range d.tables {
		for _, r := range rows {
			if r.Name == name {
				return table, r, true
			}
		}
	}
	return "", nil, false
}

// DecodeDoc reads a document in the site's JSON shape:
// fields at top level, child tables as arrays of row objects.
func DecodeDoc(schemas Schemas, data []byte) (*Doc, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperror.NewValidation("malformed document").WithCause(err)
	}

	var head struct {
		Doctype   string `json:"doctype"`
		Name      string `json:"name"`
		Docstatus int    `json:"docstatus"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, apperror.NewValidation("malformed document").WithCause(err)
	}
	if head.Doctype == "" {
		return nil, apperror.NewValidation("document has no doctype")
	}

	doc, err := NewDoc(schemas, head.Doctype)
	if err != nil {
		return nil, err
	}
	doc.Name = head.Name
	doc.Docstatus = head.Docstatus

	isTable := func(key string) bool {
		f, ok := doc.schema.Field(key)
		return ok && f.Fieldtype == metadata.TypeTable
	}
	if err := doc.load(raw, func(key string) bool {
		return key == "doctype" || key == "name" || key == "docstatus" || isTable(key)
	}); err != nil {
		return nil, err
	}

	for _, tdef := range doc.schema.Tables() {
		rawRows, ok := raw[tdef.Fieldname]
		if !ok || string(rawRows) == "null" {
			continue
		}
		var rows []map[string]json.RawMessage
		if err := json.Unmarshal(rawRows, &rows); err != nil {
			return nil, apperror.NewValidation(fmt.Sprintf("%s: malformed table", tdef.Fieldname)).WithCause(err)
		}
		for _, rr := range rows {
			var name string
			if n, ok := rr["name"]; ok {
				_ = json.Unmarshal(n, &name)
			}
			row, err := doc.AddRow(tdef.Fieldname, name, nil)
			if err != nil {
				return nil, err
			}
			if err := row.load(rr, func(key string) bool {
				return key == "name" || key == "idx" || key == "doctype" || key == "parentfield"
			}); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

// MarshalJSON writes the document back in the site's JSON shape.
func (d *Doc) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.fields)+len(d.extra)+len(d.tables)+3)
	for k, v := range d.extra {
		out[k] = v
	}
	for k, v := range d.fields {
		out[k] = v
	}
	out["doctype"] = d.Doctype
	out["docstatus"] = d.Docstatus
	if d.Name != "" {
		out["name"] = d.Name
	}

	tables := make([]string, 0, len(d.tables))
	for t := range d.tables {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		rows := make([]map[string]any, 0, len(d.tables[t]))
		for _, r := range d.tables[t] {
			rows = append(rows, r.toMap())
		}
		out[t] = rows
	}
	return json.Marshal(out)
}

func (r *Row) toMap() map[string]any {
	m := make(map[string]any, len(r.fields)+len(r.extra)+4)
	for k, v := range r.extra {
		m[k] = v
	}
	for k, v := range r.fields {
		m[k] = v
	}
	m["doctype"] = r.Doctype
	m["name"] = r.Name
	m["idx"] = r.Idx
	m["parentfield"] = r.Parentfield
	return m
}
