package reports

import (
	"context"

	"erpdesk/pkg/logger"
)

// Callback reacts to a filter change. value is the new filter value.
type Callback func(ctx context.Context, f *Form, value string) error

// Callbacks binds callback names used in FilterDef.OnChange.
type Callbacks map[string]Callback

// OnCustomerChange is the callback name of the customer-name lookup.
const OnCustomerChange = "customer_name_lookup"

// CustomerNameLookup fills customer_name from the selected customer and
// requests a refresh. Clearing the customer clears the name.
// A failed lookup leaves the name empty; it is logged, never returned.
func CustomerNameLookup(values ValueGetter, log *logger.Logger) Callback {
	return func(ctx context.Context, f *Form, customer string) error {
		name := ""
		if customer != "" {
			v, err := values.GetValue(ctx, "Customer", customer, "customer_name")
			if err != nil {
				log.WithContext(ctx).Warnw("customer name lookup failed",
					"customer", customer,
					"error", err,
				)
			} else {
				name = v
			}
		}

		if err := f.SetInput("customer_name", name); err != nil {
			log.WithContext(ctx).Warnw("customer name field missing", "report", f.Report().Name)
		}
		f.TriggerRefresh()
		return nil
	}
}
