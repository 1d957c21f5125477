// Package reports provides the report registrations and the report form runtime.
package reports

import (
	"encoding/json"
)

// Report names as registered on the site.
const (
	CustomerAccountStatement  = "Customer Account Statment"
	CustomerStatement         = "Customer Statment"
	OutstandingInvoicesByDate = "Outstanding Invoices by Date"
	SalesOrderWithPayment     = "Sales Order With Payment"
	SalesReturnBySalesman     = "Sales Return by Salesman"
	PLByCostCenter            = "P&L by CostCenter"
)

// Result is what the site returns for a report run.
// Columns and rows are passed through as the server produced them.
type Result struct {
	Report  string            `json:"report"`
	Filters map[string]string `json:"filters"`
	Columns json.RawMessage   `json:"columns"`
	Rows    json.RawMessage   `json:"result"`
	Message json.RawMessage   `json:"message,omitempty"`
	Chart   json.RawMessage   `json:"chart,omitempty"`
}

// State is a snapshot of a report form after user input.
type State struct {
	Report  string            `json:"report"`
	Values  map[string]string `json:"values"`
	Refresh bool              `json:"refresh"`
	Missing []string          `json:"missing,omitempty"`
}
