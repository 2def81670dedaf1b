package engine

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// The dlopen mode used for every native device library: resolve all
// symbols immediately and make them visible to subsequently loaded
// libraries, matching the conventional C ABI loading mode.
const libraryDlopenMode = purego.RTLD_NOW | purego.RTLD_GLOBAL

// nativeLibrary wraps a dlopen'd shared object. Both device adapters hold
// one through their lib field; close zeroes the handle, so it is released
// exactly once regardless of which adapter kind opened it.
type nativeLibrary struct {
	handle uintptr
	path   string
}

func openNativeLibrary(path string) (*nativeLibrary, error) {
	handle, err := purego.Dlopen(path, libraryDlopenMode)
	if err != nil {
		return nil, fmt.Errorf("library device: open %s: %w", path, err)
	}
	return &nativeLibrary{handle: handle, path: path}, nil
}

func (l *nativeLibrary) symbol(name string) (uintptr, error) {
	addr, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return 0, fmt.Errorf("library device: %s: missing symbol %s: %w", l.path, name, err)
	}
	return addr, nil
}

func (l *nativeLibrary) close() {
	if l.handle != 0 {
		purego.Dlclose(l.handle)
		l.handle = 0
	}
}

// LibraryAddressDevice adapts a native shared-object module to the
// AddressBusDevice capability set, per the <prefix>_address_bus_{init,
// write,read,shutdown} ABI.
type LibraryAddressDevice struct {
	lib *nativeLibrary

	initFn     func(length uint64) uintptr
	writeFn    func(data uintptr, length uint64, offset uint64, address uint64, opaque uintptr)
	readFn     func(data uintptr, length uint64, offset uint64, address uint64, opaque uintptr)
	shutdownFn func(opaque uintptr)

	opaque uintptr
}

// NewLibraryAddressDevice opens the shared object at path and binds it
// as an address-bus device of the given length, using <prefix> as the
// ABI symbol prefix. Construction fails if the library cannot be opened,
// a required symbol is missing, or init returns NULL.
func NewLibraryAddressDevice(path, prefix string, length uint64) (*LibraryAddressDevice, error) {
	lib, err := openNativeLibrary(path)
	if err != nil {
		return nil, err
	}

	d := &LibraryAddressDevice{lib: lib}
	if err := bindAddressBusSymbols(lib, prefix, d); err != nil {
		lib.close()
		return nil, err
	}

	d.opaque = d.initFn(length)
	if d.opaque == 0 {
		lib.close()
		return nil, fmt.Errorf("library device: %s: %s_address_bus_init returned NULL", path, prefix)
	}

	return d, nil
}

func bindAddressBusSymbols(lib *nativeLibrary, prefix string, d *LibraryAddressDevice) error {
	names := [4]string{
		prefix + "_address_bus_init",
		prefix + "_address_bus_write",
		prefix + "_address_bus_read",
		prefix + "_address_bus_shutdown",
	}
	addrs := [4]uintptr{}
	for i, name := range names {
		addr, err := lib.symbol(name)
		if err != nil {
			return err
		}
		addrs[i] = addr
	}

	purego.RegisterFunc(&d.initFn, addrs[0])
	purego.RegisterFunc(&d.writeFn, addrs[1])
	purego.RegisterFunc(&d.readFn, addrs[2])
	purego.RegisterFunc(&d.shutdownFn, addrs[3])
	return nil
}

// Write implements AddressBusDevice.
func (d *LibraryAddressDevice) Write(src []byte, address uint64, offset uint64) {
	if len(src) == 0 {
		return
	}
	d.writeFn(uintptr(unsafe.Pointer(&src[0])), uint64(len(src)), offset, address, d.opaque)
}

// Read implements AddressBusDevice.
func (d *LibraryAddressDevice) Read(dst []byte, address uint64, offset uint64) {
	if len(dst) == 0 {
		return
	}
	d.readFn(uintptr(unsafe.Pointer(&dst[0])), uint64(len(dst)), offset, address, d.opaque)
}

// Shutdown runs the module's shutdown hook exactly once, then releases
// the library handle.
func (d *LibraryAddressDevice) Shutdown() {
	if d.shutdownFn != nil {
		d.shutdownFn(d.opaque)
		d.shutdownFn = nil
	}
	d.lib.close()
}

// LibraryPortDevice adapts a native shared-object module to the
// PortBusDevice capability set, per the <prefix>_port_bus_{init,write,
// read,shutdown} ABI.
type LibraryPortDevice struct {
	lib  *nativeLibrary
	port uint16

	initFn     func(port uint16) uintptr
	writeFn    func(value uint64, port uint16, opaque uintptr)
	readFn     func(port uint16, opaque uintptr) uint64
	shutdownFn func(port uint16, opaque uintptr)

	opaque uintptr
}

// NewLibraryPortDevice opens the shared object at path and binds it as
// a port-bus device at the given port, using <prefix> as the ABI symbol
// prefix.
func NewLibraryPortDevice(path, prefix string, port uint16) (*LibraryPortDevice, error) {
	lib, err := openNativeLibrary(path)
	if err != nil {
		return nil, err
	}

	d := &LibraryPortDevice{lib: lib, port: port}
	if err := bindPortBusSymbols(lib, prefix, d); err != nil {
		lib.close()
		return nil, err
	}

	d.opaque = d.initFn(port)
	if d.opaque == 0 {
		lib.close()
		return nil, fmt.Errorf("library device: %s: %s_port_bus_init returned NULL", path, prefix)
	}

	return d, nil
}

func bindPortBusSymbols(lib *nativeLibrary, prefix string, d *LibraryPortDevice) error {
	names := [4]string{
		prefix + "_port_bus_init",
		prefix + "_port_bus_write",
		prefix + "_port_bus_read",
		prefix + "_port_bus_shutdown",
	}
	addrs := [4]uintptr{}
	for i, name := range names {
		addr, err := lib.symbol(name)
		if err != nil {
			return err
		}
		addrs[i] = addr
	}

	purego.RegisterFunc(&d.initFn, addrs[0])
	purego.RegisterFunc(&d.writeFn, addrs[1])
	purego.RegisterFunc(&d.readFn, addrs[2])
	purego.RegisterFunc(&d.shutdownFn, addrs[3])
	return nil
}

// Write implements PortBusDevice.
func (d *LibraryPortDevice) Write(value uint64) {
	d.writeFn(value, d.port, d.opaque)
}

// Read implements PortBusDevice.
func (d *LibraryPortDevice) Read() uint64 {
	return d.readFn(d.port, d.opaque)
}

// Shutdown runs the module's shutdown hook exactly once, then releases
// the library handle.
func (d *LibraryPortDevice) Shutdown() {
	if d.shutdownFn != nil {
		d.shutdownFn(d.port, d.opaque)
		d.shutdownFn = nil
	}
	d.lib.close()
}
