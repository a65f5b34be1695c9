package device

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/driver"
	"github.com/gogpu/gpucontext"
)

// Context is a selected GPU and its graphics queue. It is safe for
// concurrent use; all driver access is serialized by Exec.
type Context struct {
	mu sync.Mutex

	backend     string
	instance    driver.Instance
	physical    driver.PhysicalDevice
	device      driver.Device
	queueFamily uint32
	queue       driver.Queue
	props       driver.PhysicalDeviceProperties
	memory      driver.MemoryProperties

	accelerated bool
	disposed    bool
}

// Create discovers a device on backend: the first physical device that is
// not CPU class and passes the options' filter, and its first queue family
// with graphics and transfer support. Anything created before a failure is
// destroyed before Create returns.
func Create(backend driver.Backend, opts ...Option) (*Context, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: no driver backend", ggbench.ErrDeviceInit)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	inst, err := backend.CreateInstance()
	if err != nil {
		return nil, fmt.Errorf("%w: %s instance: %w", ggbench.ErrDeviceInit, backend.Name(), err)
	}
	ctx, err := open(inst, o)
	if err != nil {
		inst.Destroy()
		return nil, err
	}
	ctx.backend = backend.Name()
	if sd, ok := ctx.device.(driver.SharedDevice); ok {
		ctx.share(sd.DeviceProvider())
	}

	ggbench.Logger().Info("device: selected",
		"backend", ctx.backend,
		"name", ctx.props.Name,
		"type", ctx.props.Type,
		"queueFamily", ctx.queueFamily,
		"accelerated", ctx.accelerated)
	return ctx, nil
}

// share hands the device to gg's registered accelerator. Without an
// accelerator, or when gg rejects the device, canvases stay on the CPU.
func (c *Context) share(p gpucontext.DeviceProvider) {
	if p == nil || gg.Accelerator() == nil {
		return
	}
	if err := gg.SetAcceleratorDeviceProvider(p); err != nil {
		ggbench.Logger().Warn("device: gg accelerator rejected device", "name", c.props.Name, "err", err)
		return
	}
	c.accelerated = true
}

// open selects the physical device and queue and creates the logical device.
// The caller destroys inst on error.
func open(inst driver.Instance, o options) (*Context, error) {
	physicals, err := inst.EnumeratePhysicalDevices()
	if err != nil {
		return nil, fmt.Errorf("%w: enumerate devices: %w", ggbench.ErrDeviceInit, err)
	}

	var phys driver.PhysicalDevice
	for _, p := range physicals {
		props := p.Properties()
		if props.Type == driver.DeviceTypeCPU {
			ggbench.Logger().Debug("device: skipping CPU device", "name", props.Name)
			continue
		}
		if o.filter(props) {
			phys = p
			break
		}
	}
	if phys == nil {
		return nil, fmt.Errorf("%w (%d devices)", ggbench.ErrNoSuitableDevice, len(physicals))
	}

	family, ok := graphicsQueueFamily(phys.QueueFamilies())
	if !ok {
		return nil, fmt.Errorf("%w on %q", ggbench.ErrNoGraphicsQueue, phys.Properties().Name)
	}

	dev, err := phys.CreateDevice(family)
	if err != nil {
		return nil, fmt.Errorf("%w: create device: %w", ggbench.ErrDeviceInit, err)
	}
	q, err := dev.Queue(family, 0)
	if err != nil {
		dev.Destroy()
		return nil, fmt.Errorf("%w: get queue: %w", ggbench.ErrDeviceInit, err)
	}

	return &Context{
		instance:    inst,
		physical:    phys,
		device:      dev,
		queueFamily: family,
		queue:       q,
		props:       phys.Properties(),
		memory:      phys.MemoryProperties(),
	}, nil
}

func graphicsQueueFamily(families []driver.QueueFamilyProperties) (uint32, bool) {
	for i, f := range families {
		if f.Count > 0 && f.Flags.Has(driver.QueueGraphics|driver.QueueTransfer) {
			return uint32(i), true //nolint:gosec // G115: queue family count is small
		}
	}
	return 0, false
}

// Handles gives Exec callbacks access to the device and queue.
type Handles struct {
	Device driver.Device
	Queue  driver.Queue
	Memory driver.MemoryProperties
}

// Exec runs fn while holding the device lock. It returns ggbench.ErrClosed
// after Dispose.
func (c *Context) Exec(fn func(h Handles) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ggbench.ErrClosed
	}
	return fn(Handles{Device: c.device, Queue: c.queue, Memory: c.memory})
}

// Info returns the properties of the selected physical device.
func (c *Context) Info() driver.PhysicalDeviceProperties {
	return c.props
}

// Backend returns the name of the driver backend.
func (c *Context) Backend() string {
	return c.backend
}

// QueueFamily returns the index of the graphics queue family.
func (c *Context) QueueFamily() uint32 {
	return c.queueFamily
}

// Accelerated reports whether gg's GPU accelerator renders with this device.
// Canvases of other devices are rasterized on the CPU and uploaded.
func (c *Context) Accelerated() bool {
	return c.accelerated
}

// Dispose waits for the device to go idle, then destroys the logical device
// and the instance. If gg's accelerator renders with the device it is closed
// first, and later devices are no longer accelerated. Subsequent calls do
// nothing.
func (c *Context) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true

	// gg's pipelines live on the device and must go first.
	if c.accelerated {
		gg.CloseAccelerator()
	}
	if err := c.device.WaitIdle(); err != nil {
		ggbench.Logger().Warn("device: wait idle", "err", err)
	}
	c.device.Destroy()
	c.instance.Destroy()
	ggbench.Logger().Debug("device: disposed", "name", c.props.Name)
}
