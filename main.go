package main

import (
	"context"
	"os"
	"os/signal"

	"cmcts/cmd"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		log.Fatal().Err(err).Msg("cmcts failed")
	}
}
