// Package itemlabel binds the Item Label form events.
package itemlabel

import (
	"fmt"

	"erpdesk/internal/core/types"
	"erpdesk/internal/metadata"
)

// Doctype names.
const (
	DocType      = "Item Label"
	RowDocType   = "Item Label Reference"
	PriceDocType = "Item Price"

	ItemsTable = "items"
)

// ItemLabel is a printable price label sheet.
type ItemLabel struct {
	Title       string      `json:"title"`
	Company     string      `json:"company" frappe:"Link,Company"`
	PostingDate string      `json:"posting_date" frappe:"Date"`
	Items       []Reference `json:"items" frappe:"Table,Item Label Reference" binding:"required"`
}

// Reference is one item on a label sheet.
type Reference struct {
	ItemCode  string      `json:"item_code" frappe:"Link,Item" binding:"required"`
	ItemName  string      `json:"item_name" frappe:"Data,read_only"`
	PriceList string      `json:"price_list" frappe:"Link,Price List" binding:"required"`
	ItemPrice types.Money `json:"item_price"`
}

// Price is an Item Price record. HasRate is false when the rate is unset.
type Price struct {
	Name      string
	ItemCode  string
	PriceList string
	Rate      types.Money
	HasRate   bool
}

// Schemas returns the doctype definitions of the label and its rows.
func Schemas() []metadata.DocTypeDef {
	label := metadata.Inspect(ItemLabel{}, DocType)
	label.IsSubmittable = true
	label.Module = "Stock"

	row := metadata.Inspect(Reference{}, RowDocType)
	row.IsChild = true
	row.Module = "Stock"

	return []metadata.DocTypeDef{label, row}
}

// RegisterSchemas adds the label doctypes to reg.
func RegisterSchemas(reg *metadata.Registry) error {
	for _, def := range Schemas() {
		if err := reg.RegisterDocType(def); err != nil {
			return fmt.Errorf("register doctype %q: %w", def.Name, err)
		}
	}
	return nil
}
