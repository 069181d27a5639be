// Command parcelgen derives binary codecs for the types of a schema file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/oy3o/parcel/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := commands.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
