package bootloader

import (
	"github.com/golang/glog"

	"github.com/johnneerdael/hidflash/gohid"
)

// Candidate is the single device found on the bus.
type Candidate struct {
	Info gohid.DeviceInfo
	Mode Mode
}

// Discover enumerates bus and returns the one device matching id, or nil if
// there is none. Interfaces sharing a path belong to the same physical
// device and are reported once. A non-empty serial filters by serial number.
func Discover(bus gohid.Bus, id Identity, serial string) (*Candidate, error) {
	infos, err := bus.Enumerate(id.VendorID)
	if err != nil {
		return nil, &TransportError{Op: "enumerate", Err: err}
	}

	var found []Candidate
	seen := make(map[string]bool)
	for _, info := range infos {
		glog.V(1).Infof("Dev %s serial %q", info, info.Serial)
		if info.VendorID != id.VendorID {
			continue
		}
		mode, ok := id.ModeOf(info.ProductID)
		if !ok {
			continue
		}
		if serial != "" && info.Serial != serial {
			glog.V(1).Infof("Skipping %s: serial number mismatch (want %s)", info.Path, serial)
			continue
		}
		if seen[info.Path] {
			continue
		}
		seen[info.Path] = true
		found = append(found, Candidate{Info: info, Mode: mode})
	}

	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	}

	devs := make([]gohid.DeviceInfo, len(found))
	for i, c := range found {
		devs[i] = c.Info
	}
	// only one such physical device exists
	return nil, &MultipleDevicesError{Devices: devs}
}
