package device

import (
	"strings"

	"github.com/gogpu/ggbench/driver"
)

// Option configures device selection.
type Option func(*options)

type options struct {
	filter func(driver.PhysicalDeviceProperties) bool
}

func defaultOptions() options {
	return options{filter: func(driver.PhysicalDeviceProperties) bool { return true }}
}

// WithDeviceFilter restricts selection to physical devices accepted by keep.
// CPU-class devices are rejected regardless of the filter.
func WithDeviceFilter(keep func(driver.PhysicalDeviceProperties) bool) Option {
	return func(o *options) {
		if keep != nil {
			o.filter = keep
		}
	}
}

// WithDeviceName selects the first device whose name contains substr,
// ignoring case.
func WithDeviceName(substr string) Option {
	substr = strings.ToLower(substr)
	return WithDeviceFilter(func(p driver.PhysicalDeviceProperties) bool {
		return strings.Contains(strings.ToLower(p.Name), substr)
	})
}
