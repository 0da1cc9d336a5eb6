// Command api serves the order lifecycle HTTP API without the CLI wrapper.
package main

import (
	"go.uber.org/fx"

	"github.com/Argor01/OkoZnaniy-sub000/internal/app"
)

func main() {
	fx.New(app.Module, app.EventLogger).Run()
}
