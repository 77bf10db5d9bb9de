package embeds

import (
	"fmt"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/config"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/coordinator"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/embeds/geo"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/embeds/pixel"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/inject"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/logging"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/registry"
)

// RegisterAll registers the built-in embed implementations. policy is
// the runtime-wide script URL policy applied to every embed that
// injects a vendor script.
func RegisterAll(reg *registry.Registry, coord *coordinator.Coordinator, cfg *config.Config, policy inject.URLPolicy, log *logging.Logger) error {
	geoEmbed := geo.New(coord, cfg.Embeds.GeoEndpoint, log)
	if err := reg.Register(geoEmbed.Type(), geoEmbed.Draw); err != nil {
		return fmt.Errorf("failed to register geo embed: %w", err)
	}

	pixelEmbed := pixel.New(policy)
	if err := reg.Register(pixelEmbed.Type(), pixelEmbed.Draw); err != nil {
		return fmt.Errorf("failed to register pixel embed: %w", err)
	}

	return nil
}
