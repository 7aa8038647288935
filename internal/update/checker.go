// Package update checks for newer droidprune releases.
package update

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/blackwell-systems/droidprune/internal/gateway"
	"github.com/blackwell-systems/droidprune/internal/prompt"
	"github.com/blackwell-systems/droidprune/internal/status"
)

// Checker runs an update check and reports the outcome in the sink's
// update message slot.
type Checker struct {
	gw          gateway.Gateway
	sink        *status.Sink
	confirm     prompt.Confirmer
	opener      prompt.LinkOpener
	releasePage string
	logger      *zap.Logger
}

// NewChecker creates a Checker. releasePage is offered to the user when a
// newer version exists.
func NewChecker(gw gateway.Gateway, sink *status.Sink, confirm prompt.Confirmer,
	opener prompt.LinkOpener, releasePage string, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		gw:          gw,
		sink:        sink,
		confirm:     confirm,
		opener:      opener,
		releasePage: releasePage,
		logger:      logger,
	}
}

// Check compares current against the latest release. The update message
// is overwritten at the start of the check and again with its outcome.
func (c *Checker) Check(ctx context.Context, current string) gateway.UpdateInfo {
	c.sink.SetUpdateMessage("Checking updates...")

	info, err := c.gw.CheckUpdate(ctx, current)
	if err != nil {
		c.logger.Warn("update check failed", zap.Error(err))
		c.sink.SetUpdateMessage(fmt.Sprintf("Update check failed: %v", err))
		return gateway.UpdateInfo{}
	}

	if !info.Outdated {
		c.sink.SetUpdateMessage("You are using the latest version.")
		return info
	}

	if c.releasePage != "" && c.confirm.Confirm(fmt.Sprintf("New version %s available. Open release page?", info.Latest)) {
		if err := c.opener.Open(c.releasePage); err != nil {
			c.logger.Warn("failed to open release page", zap.String("url", c.releasePage), zap.Error(err))
		}
	}
	c.sink.SetUpdateMessage(fmt.Sprintf("New version %s available.", info.Latest))
	return info
}
