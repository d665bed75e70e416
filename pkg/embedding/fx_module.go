package embedding

import (
	"go.uber.org/fx"

	"github.com/shopvision/visearch/pkg/logger"
)

type ClientParams struct {
	fx.In

	Config *Config
	Logger *logger.Logger
}

func newProviderFromConfig(p ClientParams) (Provider, error) {
	return NewInferenceProvider(p.Config)
}

func newClientFromParams(p ClientParams, provider Provider) *Client {
	return NewClient(provider, p.Logger)
}

var FXModule = fx.Options(
	fx.Provide(
		newProviderFromConfig,
		newClientFromParams,
	),
)
