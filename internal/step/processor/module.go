package processor

import (
	"go.uber.org/fx"
)

// Module provides the processor component for the generation step.
var Module = fx.Options(
	fx.Provide(NewAssignmentProcessor),
)
