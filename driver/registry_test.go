package driver

import (
	"slices"
	"testing"
)

type stubBackend struct{ name string }

func (b stubBackend) Name() string                      { return b.name }
func (b stubBackend) CreateInstance() (Instance, error) { return nil, nil }

func TestRegistry(t *testing.T) {
	const name = "registry-test"
	Register(name, func() Backend { return stubBackend{name: name} })
	t.Cleanup(func() { Unregister(name) })

	if !slices.Contains(Available(), name) {
		t.Fatalf("Available() = %v, want to contain %q", Available(), name)
	}
	b := Get(name)
	if b == nil || b.Name() != name {
		t.Fatalf("Get(%q) = %v", name, b)
	}
	if Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}
}

func TestRegistryDefaultPriority(t *testing.T) {
	for _, name := range []string{BackendVulkan, BackendSoft} {
		if Get(name) != nil {
			t.Skip("real drivers registered in this binary")
		}
	}
	Register(BackendSoft, func() Backend { return stubBackend{name: BackendSoft} })
	Register(BackendVulkan, func() Backend { return stubBackend{name: BackendVulkan} })
	t.Cleanup(func() {
		Unregister(BackendSoft)
		Unregister(BackendVulkan)
	})

	if got := Default(); got == nil || got.Name() != BackendVulkan {
		t.Errorf("Default() = %v, want %s", got, BackendVulkan)
	}
	var names []string
	for _, b := range Prioritized() {
		names = append(names, b.Name())
	}
	if want := []string{BackendVulkan, BackendSoft}; !slices.Equal(names, want) {
		t.Errorf("Prioritized() = %v, want %v", names, want)
	}

	// A factory that cannot load its backend is left out.
	Register(BackendVulkan, func() Backend { return nil })
	if bs := Prioritized(); len(bs) != 1 || bs[0].Name() != BackendSoft {
		t.Errorf("Prioritized() with unloadable vulkan = %v, want [soft]", bs)
	}
	Unregister(BackendVulkan)
	if got := Default(); got == nil || got.Name() != BackendSoft {
		t.Errorf("Default() = %v, want %s", got, BackendSoft)
	}
}
