// Command matchd is the matching engine process: it wires configuration,
// logging, the matching engine, the persistence timer and the TCP
// transport together, following the teacher's cmd/main.go signal-handling
// shutdown shape.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"coreforge/internal/engine"
	"coreforge/internal/persistence"
	"coreforge/internal/transport"
)

func main() {
	address := flag.String("address", "0.0.0.0", "listen address")
	port := flag.Int("port", 9001, "listen port")
	flag.Parse()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg := engine.ConfigFromEnv()
	eng := engine.New(cfg)

	persistence.Load(eng, cfg.PersistPath)

	t, ctx := tomb.WithContext(ctx)

	writer := persistence.NewWriter(eng, cfg.PersistPath, cfg.PersistInterval)
	t.Go(func() error {
		return writer.Run(t)
	})

	srv := transport.New(*address, *port, eng)
	t.Go(func() error {
		srv.Run(ctx)
		return nil
	})

	log.Info().
		Str("address", *address).
		Int("port", *port).
		Str("persist_path", cfg.PersistPath).
		Msg("matchd starting")

	<-ctx.Done()
	t.Kill(nil)
	if err := t.Wait(); err != nil {
		log.Error().Err(err).Msg("matchd exited with error")
	}
}
