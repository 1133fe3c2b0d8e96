package main

import (
	"context"
	"fmt"
	"os"

	"github.com/km-arc/fastie/app"
	fapp "github.com/km-arc/fastie/framework/app"
	"github.com/km-arc/fastie/framework/container"
)

// main serves the application; cmd/fastie carries the other commands.
func main() {
	application, err := fapp.New() // loads .env automatically
	if err != nil {
		fmt.Fprintln(os.Stderr, "bootstrap:", err)
		os.Exit(1)
	}

	if err := application.Register(container.ProviderFunc(app.Register)); err != nil {
		application.Logger().Fatal(err.Error())
	}
	application.Routes(app.Routes)

	if err := application.Run(context.Background()); err != nil {
		application.Logger().Fatal(err.Error())
	}
}
