package reader

import (
	"go.uber.org/fx"
)

// Module provides the reader component for the generation step.
var Module = fx.Options(
	fx.Provide(NewServiceDateReader),
)
