package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gogpu/ggbench/driver"
)

func newDevicesCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the physical devices of the registered drivers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := driver.Available()
			if name != "" {
				names = []string{name}
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DRIVER\tDEVICE\tTYPE\tVENDOR\tQUEUES\tMEMORY")
			for _, n := range names {
				if err := listDevices(tw, n); err != nil {
					return err
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&name, "driver", "", "only list devices of this driver")
	return cmd
}

func listDevices(tw *tabwriter.Writer, name string) error {
	b := driver.Get(name)
	if b == nil {
		return fmt.Errorf("driver %q is not available (registered: %s)", name, strings.Join(driver.Available(), ", "))
	}
	inst, err := b.CreateInstance()
	if err != nil {
		fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t%v\n", name, err)
		return nil
	}
	defer inst.Destroy()

	pds, err := inst.EnumeratePhysicalDevices()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, pd := range pds {
		p := pd.Properties()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			name, p.Name, p.Type, p.Vendor, queueSummary(pd.QueueFamilies()), memorySummary(pd.MemoryProperties()))
	}
	return nil
}

func queueSummary(families []driver.QueueFamilyProperties) string {
	parts := make([]string, len(families))
	for i, f := range families {
		var caps []string
		if f.Flags.Has(driver.QueueGraphics) {
			caps = append(caps, "G")
		}
		if f.Flags.Has(driver.QueueCompute) {
			caps = append(caps, "C")
		}
		if f.Flags.Has(driver.QueueTransfer) {
			caps = append(caps, "T")
		}
		parts[i] = fmt.Sprintf("%sx%d", strings.Join(caps, ""), f.Count)
	}
	return strings.Join(parts, ",")
}

func memorySummary(mp driver.MemoryProperties) string {
	parts := make([]string, len(mp.Types))
	for i, t := range mp.Types {
		var flags []string
		if t.Flags.Has(driver.MemoryDeviceLocal) {
			flags = append(flags, "local")
		}
		if t.Flags.Has(driver.MemoryHostVisible) {
			flags = append(flags, "visible")
		}
		if t.Flags.Has(driver.MemoryHostCoherent) {
			flags = append(flags, "coherent")
		}
		if t.Flags.Has(driver.MemoryHostCached) {
			flags = append(flags, "cached")
		}
		parts[i] = strings.Join(flags, "+")
	}
	return strings.Join(parts, ",")
}
