package adb

import "strings"

// Device is one line of `adb devices`.
type Device struct {
	Serial string
	State  string // "device", "unauthorized", "offline", ...
}

// parseDevices parses `adb devices` output. The first line is a header:
//
//	List of devices attached
//	emulator-5554	device
//	0123456789ABCDEF	unauthorized
func parseDevices(output string) []Device {
	var devices []Device
	for i, line := range strings.Split(output, "\n") {
		if i == 0 {
			continue
		}
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "*") {
			continue
		}
		serial, state, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		devices = append(devices, Device{Serial: serial, State: strings.TrimSpace(state)})
	}
	return devices
}

// parsePackages parses `pm list packages` output ("package:<name>" lines).
func parsePackages(output string) []string {
	var pkgs []string
	for _, line := range strings.Split(output, "\n") {
		_, name, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		pkgs = append(pkgs, name)
	}
	return pkgs
}

// parsePMPath parses `pm path <pkg>` output ("package:/data/app/.../base.apk").
func parsePMPath(output string) []string {
	var paths []string
	for _, line := range strings.Split(output, "\n") {
		_, p, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
