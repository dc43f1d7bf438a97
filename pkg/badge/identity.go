package badge

import "strings"

// DeviceIdentity is an immutable snapshot of the device metadata that provider
// detection depends on. Build it with NewDeviceIdentity so the sets are copied.
type DeviceIdentity struct {
	Manufacturer string
	Model        string
	SDKInt       int
	PackageName  string

	installedPackages map[string]struct{}
	contentProviders  map[string]struct{}
	systemProperties  map[string]string
}

// IdentityParams carries the raw values for NewDeviceIdentity.
type IdentityParams struct {
	Manufacturer      string
	Model             string
	SDKInt            int
	PackageName       string
	InstalledPackages []string
	ContentProviders  []string
	SystemProperties  map[string]string
}

// NewDeviceIdentity builds a snapshot that does not alias the caller's slices or maps.
func NewDeviceIdentity(p IdentityParams) DeviceIdentity {
	id := DeviceIdentity{
		Manufacturer:      p.Manufacturer,
		Model:             p.Model,
		SDKInt:            p.SDKInt,
		PackageName:       p.PackageName,
		installedPackages: make(map[string]struct{}, len(p.InstalledPackages)),
		contentProviders:  make(map[string]struct{}, len(p.ContentProviders)),
		systemProperties:  make(map[string]string, len(p.SystemProperties)),
	}
	for _, pkg := range p.InstalledPackages {
		id.installedPackages[pkg] = struct{}{}
	}
	for _, authority := range p.ContentProviders {
		id.contentProviders[authority] = struct{}{}
	}
	for k, v := range p.SystemProperties {
		id.systemProperties[k] = v
	}
	return id
}

// ManufacturerContains reports whether the lower-cased manufacturer contains any of needles.
// Needles are expected in lower case.
func (d DeviceIdentity) ManufacturerContains(needles ...string) bool {
	m := strings.ToLower(d.Manufacturer)
	for _, n := range needles {
		if strings.Contains(m, n) {
			return true
		}
	}
	return false
}

// HasPackage reports whether pkg is installed.
func (d DeviceIdentity) HasPackage(pkg string) bool {
	_, ok := d.installedPackages[pkg]
	return ok
}

// HasContentProvider reports whether a content provider with this authority is registered.
func (d DeviceIdentity) HasContentProvider(authority string) bool {
	_, ok := d.contentProviders[authority]
	return ok
}

// SystemProperty returns a system property and whether it is set.
func (d DeviceIdentity) SystemProperty(name string) (string, bool) {
	v, ok := d.systemProperties[name]
	return v, ok
}

// AtLeastSDK reports whether the OS API level is at least level.
func (d DeviceIdentity) AtLeastSDK(level int) bool {
	return d.SDKInt >= level
}
