//go:build !windows

package rig

import (
	"fmt"

	"go.uber.org/zap"
)

// OpenOmniRig always fails outside Windows: OmniRig is a COM server.
func OpenOmniRig(logger *zap.Logger, progID string) (Broker, error) {
	logger.Named("omnirig").Debug("COM automation is not available on this platform")
	return nil, fmt.Errorf("%w: %s requires Windows COM automation", ErrBrokerUnavailable, progID)
}
