package reports

import (
	"fmt"

	"erpdesk/internal/metadata"
)

const (
	today         = "today()"
	monthAgo      = "add_months(today(), -1)"
	userCompany   = `user_defaults.?company.orValue("")`
	customerLabel = "Customer"
)

// Definitions returns every report registration of the desk.
func Definitions() []metadata.ReportDef {
	return []metadata.ReportDef{
		{
			Name:       CustomerAccountStatement,
			RefDoctype: "GL Entry",
			Filters: []metadata.FilterDef{
				{Fieldname: "company", Label: "Company", Fieldtype: metadata.TypeLink, Options: "Company", DefaultExpr: userCompany, Reqd: true},
				{Fieldname: "from_date", Label: "From Date", Fieldtype: metadata.TypeDate, DefaultExpr: monthAgo, Reqd: true, Width: "60px"},
				{Fieldname: "to_date", Label: "To Date", Fieldtype: metadata.TypeDate, DefaultExpr: today, Reqd: true, Width: "60px"},
				{Fieldname: "customer", Label: customerLabel, Fieldtype: metadata.TypeLink, Options: "Customer", Reqd: true, OnChange: OnCustomerChange},
				{Fieldname: "customer_name", Label: "Customer Name", Fieldtype: metadata.TypeData, ReadOnly: true},
			},
		},
		{
			Name:       CustomerStatement,
			RefDoctype: "Sales Invoice",
			Filters: []metadata.FilterDef{
				{Fieldname: "from_date", Label: "From Date", Fieldtype: metadata.TypeDate, DefaultExpr: today, Reqd: true},
				{Fieldname: "to_date", Label: "To Date", Fieldtype: metadata.TypeDate, DefaultExpr: today, Reqd: true},
				{Fieldname: "customer", Label: customerLabel, Fieldtype: metadata.TypeLink, Options: "Customer", Reqd: true},
				{Fieldname: "invoice_type", Label: "Invoice Type", Fieldtype: metadata.TypeSelect, Choices: []string{"UnPaid", "All"}, Default: "UnPaid"},
			},
		},
		{
			Name:       OutstandingInvoicesByDate,
			RefDoctype: "Sales Invoice",
			Filters: []metadata.FilterDef{
				{Fieldname: "fdate", Label: "From Date", Fieldtype: metadata.TypeDate, DefaultExpr: today, Reqd: true},
				{Fieldname: "tdate", Label: "To Date", Fieldtype: metadata.TypeDate, DefaultExpr: today, Reqd: true},
				{Fieldname: "customer", Label: customerLabel, Fieldtype: metadata.TypeLink, Options: "Customer"},
			},
		},
		{
			Name:       SalesOrderWithPayment,
			RefDoctype: "Sales Order",
			Filters: []metadata.FilterDef{
				{Fieldname: "company", Label: "Company", Fieldtype: metadata.TypeLink, Options: "Company", Reqd: true},
				{Fieldname: "fdate", Label: "From Date", Fieldtype: metadata.TypeDate, DefaultExpr: today, Reqd: true},
				{Fieldname: "tdate", Label: "To Date", Fieldtype: metadata.TypeDate, DefaultExpr: today, Reqd: true},
			},
		},
		{
			Name:       SalesReturnBySalesman,
			RefDoctype: "Sales Invoice",
			Filters: []metadata.FilterDef{
				{Fieldname: "company", Label: "Company", Fieldtype: metadata.TypeLink, Options: "Company", Reqd: true},
				{Fieldname: "sales_order", Label: "Sales Order", Fieldtype: metadata.TypeData},
			},
		},
		metadata.Extend(FinancialStatements(), PLByCostCenter,
			metadata.FilterDef{Fieldname: "cost_center", Label: "Cost Center", Fieldtype: metadata.TypeLink, Options: "Cost Center"},
			metadata.FilterDef{Fieldname: "project", Label: "Project", Fieldtype: metadata.TypeLink, Options: "Project"},
		),
	}
}

// RegisterAll adds every definition to reg.
func RegisterAll(reg *metadata.Registry) error {
	for _, def := range Definitions() {
		if err := reg.RegisterReport(def); err != nil {
			return fmt.Errorf("register report %q: %w", def.Name, err)
		}
	}
	return nil
}
