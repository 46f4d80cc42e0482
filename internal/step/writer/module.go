package writer

import (
	"go.uber.org/fx"
)

// Module provides the writer component for the generation step.
var Module = fx.Options(
	fx.Provide(NewScheduleWriter),
)
