package main

import (
	"os"

	"github.com/traveloop/traveloop/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
