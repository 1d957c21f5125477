package reports

import "erpdesk/internal/metadata"

// FinancialStatements is the filter set shared by financial statement reports.
// Derived reports are built with metadata.Extend and never alter it.
func FinancialStatements() metadata.ReportDef {
	return metadata.ReportDef{
		Name:       "Financial Statements",
		RefDoctype: "GL Entry",
		Filters: []metadata.FilterDef{
			{
				Fieldname:   "company",
				Label:       "Company",
				Fieldtype:   metadata.TypeLink,
				Options:     "Company",
				DefaultExpr: `user_defaults.?company.orValue("")`,
				Reqd:        true,
			},
			{
				Fieldname:   "from_fiscal_year",
				Label:       "Start Year",
				Fieldtype:   metadata.TypeLink,
				Options:     "Fiscal Year",
				DefaultExpr: `user_defaults.?fiscal_year.orValue("")`,
				Reqd:        true,
			},
			{
				Fieldname:   "to_fiscal_year",
				Label:       "End Year",
				Fieldtype:   metadata.TypeLink,
				Options:     "Fiscal Year",
				DefaultExpr: `user_defaults.?fiscal_year.orValue("")`,
				Reqd:        true,
			},
			{
				Fieldname: "periodicity",
				Label:     "Periodicity",
				Fieldtype: metadata.TypeSelect,
				Choices:   []string{"Monthly", "Quarterly", "Half-Yearly", "Yearly"},
				Default:   "Yearly",
				Reqd:      true,
			},
			{
				Fieldname: "presentation_currency",
				Label:     "Currency",
				Fieldtype: metadata.TypeLink,
				Options:   "Currency",
			},
		},
	}
}
