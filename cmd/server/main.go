package main

import (
	"go.uber.org/fx"

	fxmodules "github.com/maxviazov/sideline-stats-service/internal/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fxmodules.WithZerolog(),
		fx.Invoke(fxmodules.RunServer),
	).Run()
}
