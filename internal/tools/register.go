package tools

import (
	"time"

	"stockresearch/internal/tools/market"
	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

// RegisterMarketTools builds the market data tools over src and registers
// them together with their catalog definitions.
func RegisterMarketTools(registry *Registry, src market.DataSource, timeout time.Duration) error {
	log := logger.Get().With("component", "tool_registration")

	built, err := market.Tools(src, timeout)
	if err != nil {
		return errors.Wrap(err, "build market tools")
	}
	for _, t := range built {
		if err := registry.Register(t); err != nil {
			return err
		}
	}

	defs, err := Definitions()
	if err != nil {
		return err
	}
	for _, def := range defs {
		registry.Describe(def)
	}

	log.Debugf("Registered %d market data tools", len(built))
	return nil
}
