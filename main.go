package main

import (
	"os"

	"github.com/mealdesk/mealdesk-web/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
