// Command stratacontent serves the content tree, announcement and push
// notification API.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/stratacontent/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
