//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scenekit/internal/core/config"
	"github.com/zeusync/scenekit/internal/core/scene"
)

func InitializeEngine(cfg config.Config, desc *scene.Descriptor) (*Engine, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
