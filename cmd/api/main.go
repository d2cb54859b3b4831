package main

import (
	"go.uber.org/fx"

	"github.com/mesahq/mesa/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
