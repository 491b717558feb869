package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vote-role-bot/webhook"
)

// Run opens the gateway session, then serves webhooks and runs the
// scheduler until SIGINT/SIGTERM or a server failure.
func (b *Bot) Run(srv *webhook.Server, sched *Scheduler) error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	log.Printf("Logged in as %s", b.Session.State.User.String())

	b.RegisterCommands()
	sched.Start(context.Background())
	defer sched.Stop()

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Webhook server listening on %s", b.config.ListenAddr())
		serverErr <- srv.Start()
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer signal.Stop(sc)

	var runErr error
	select {
	case <-sc:
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("webhook server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down webhook server: %v", err)
	}
	return runErr
}
