package app

import (
	"go.uber.org/fx"
)

// Module provides the application-level components that do not depend
// on the selected repository backend.
var Module = fx.Options(
	fx.Provide(newRoster),
)
