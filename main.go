// main is the entry point for the repopulse CLI.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/huangsam/repopulse/cmd"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/iocache"
)

func main() {
	// Interrupts cancel the cache wait instead of killing the process mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute(ctx)

	stop()
	iocache.CloseStores()
	if err != nil {
		contract.LogFatal("Error", err)
	}
}
