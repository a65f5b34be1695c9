// Package device discovers a GPU once and shares it between render targets.
//
// A Context owns the driver instance, the selected physical device, the
// logical device and its graphics queue. Every call that allocates, binds,
// maps, submits or destroys goes through Context.Exec, which holds a single
// mutex for the whole device. The mutex serializes all frames of a parallel
// batch at the driver boundary; drawing itself happens outside it.
//
// Typical use:
//
//	ctx, err := device.Create(driver.Default())
//	if err != nil {
//		// errors.Is(err, ggbench.ErrDeviceInit): fall back to the CPU
//	}
//	defer ctx.Dispose()
package device
