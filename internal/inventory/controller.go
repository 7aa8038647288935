// Package inventory owns the device and package lists shown by the console.
package inventory

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/droidprune/internal/gateway"
	"github.com/blackwell-systems/droidprune/internal/selection"
	"github.com/blackwell-systems/droidprune/internal/status"
)

// Controller holds the current device list, package inventory and search
// query. Lists are replaced wholesale on every successful refresh; a failed
// refresh leaves the previous list in place and reports one status line.
type Controller struct {
	gw       gateway.Gateway
	sink     *status.Sink
	sel      *selection.Set
	logger   *zap.Logger
	devices  []gateway.DeviceInfo
	packages []string
	query    string
}

// New creates a Controller. sel is cleared on every successful scan.
func New(gw gateway.Gateway, sink *status.Sink, sel *selection.Set, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{gw: gw, sink: sink, sel: sel, logger: logger}
}

// RefreshDevices reloads the device list.
func (c *Controller) RefreshDevices(ctx context.Context) {
	devices, err := c.gw.ListDevices(ctx)
	if err != nil {
		c.logger.Warn("list devices failed", zap.Error(err))
		c.sink.Append(fmt.Sprintf("Error refreshing devices: %v", err))
		return
	}
	c.devices = devices
	c.logger.Debug("devices refreshed", zap.Int("count", len(devices)))
}

// ScanPackages reloads the package inventory. The "Scanning packages..."
// activity is published before the gateway call so callers see progress
// immediately. A successful scan always clears the selection.
func (c *Controller) ScanPackages(ctx context.Context) {
	c.sink.SetActivity("Scanning packages...")

	pkgs, err := c.gw.ListPackages(ctx)
	if err != nil {
		c.logger.Warn("list packages failed", zap.Error(err))
		c.sink.SetActivity("")
		c.sink.Append(fmt.Sprintf("Error listing packages: %v", err))
		return
	}

	c.packages = pkgs
	c.sel.Clear()
	c.sink.SetActivity("")
	c.sink.Append(fmt.Sprintf("Found %d packages", len(pkgs)))
}

// Devices returns the current device list.
func (c *Controller) Devices() []gateway.DeviceInfo {
	out := make([]gateway.DeviceInfo, len(c.devices))
	copy(out, c.devices)
	return out
}

// Packages returns the full inventory in backend order.
func (c *Controller) Packages() []string {
	out := make([]string, len(c.packages))
	copy(out, c.packages)
	return out
}

// SetQuery sets the active search query.
func (c *Controller) SetQuery(q string) { c.query = q }

// ClearQuery resets the search query so the full list shows again.
func (c *Controller) ClearQuery() { c.query = "" }

// Query returns the active search query.
func (c *Controller) Query() string { return c.query }

// Filter returns the inventory entries matching query.
func (c *Controller) Filter(query string) iter.Seq[string] {
	return Filter(c.packages, query)
}

// Filtered returns the inventory entries matching the active query.
func (c *Controller) Filtered() iter.Seq[string] {
	return Filter(c.packages, c.query)
}

// Filter yields the entries of pkgs containing query, ignoring case, in
// their original order. pkgs is never modified. The sequence is evaluated
// lazily against the slice it was given.
func Filter(pkgs []string, query string) iter.Seq[string] {
	q := strings.ToLower(query)
	return func(yield func(string) bool) {
		for _, p := range pkgs {
			if !strings.Contains(strings.ToLower(p), q) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}
