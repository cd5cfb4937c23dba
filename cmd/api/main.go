// Command api is the container entrypoint: it applies pending migrations and
// then serves the HTTP and gRPC endpoints until signalled.
package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/depot/internal/app"
	"github.com/Additional-Code/depot/internal/migration"
)

func main() {
	fx.New(
		migration.Module,
		fx.Invoke(migrateOnStart),
		app.Module,
	).Run()
}

// migrateOnStart is invoked before the servers so its hook runs first.
func migrateOnStart(lc fx.Lifecycle, mig *migration.Migrator) {
	lc.Append(fx.Hook{OnStart: mig.Up})
}
