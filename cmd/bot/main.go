package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"zhatCmd/internal/app/runtime"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := runtime.Start(ctx, runtime.Options{})
	if err != nil {
		log.Fatal("no se pudo iniciar el bot", "err", err)
	}

	<-ctx.Done()

	if err := run.Stop(); err != nil {
		log.Error("error al apagar", "err", err)
		os.Exit(1)
	}
}
