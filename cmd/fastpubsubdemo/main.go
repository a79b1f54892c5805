// Command fastpubsubdemo wires a Broker end-to-end over a real Pub/Sub
// client: a thin cobra command that loads configuration, builds the
// runtime, and runs it until a signal arrives.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fastpubsub/fastpubsub/core"
	"github.com/fastpubsub/fastpubsub/core/middleware"
	"github.com/fastpubsub/fastpubsub/fastpubsubhttp"
	"github.com/fastpubsub/fastpubsub/gcppubsub"
	"github.com/fastpubsub/fastpubsub/internal/config"
	"github.com/fastpubsub/fastpubsub/internal/metrics"
	"github.com/fastpubsub/fastpubsub/internal/obslog"
)

var (
	projectID string
	httpAddr  string
)

func main() {
	root := &cobra.Command{
		Use:   "fastpubsubdemo",
		Short: "Run an example Pub/Sub consumer built on fastpubsub.",
		RunE:  run,
	}
	root.Flags().StringVar(&projectID, "project-id", "", "Google Cloud project id (required)")
	root.Flags().StringVar(&httpAddr, "http-addr", ":8080", "address for the health/metrics HTTP surface")
	_ = root.MarkFlagRequired("project-id")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	obslog.Init(obslog.Config{Level: config.LogLevel(), Pretty: true})
	log := obslog.Component("cmd")

	bus := gcppubsub.NewClient()

	router, err := core.NewRouter(bus, "demo")
	if err != nil {
		return fmt.Errorf("new router: %w", err)
	}
	_ = router.IncludeMiddleware(middleware.Recovery{})
	_ = router.IncludeMiddleware(middleware.Logging{Component: "demo"})

	err = router.Subscriber("events", "demo-events", "demo-events-sub", handleEvent, nil,
		core.WithLifecyclePolicy(core.LifecyclePolicy{Autocreate: true}),
	)
	if err != nil {
		return fmt.Errorf("register subscriber: %w", err)
	}

	broker, err := core.NewBroker(projectID, router, bus, config.EmulatorMode(), gcppubsub.Classify, nil)
	if err != nil {
		return fmt.Errorf("new broker: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := broker.Start(ctx, config.SelectedSubscribers()); err != nil {
		return fmt.Errorf("start broker: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", fastpubsubhttp.Handler(broker))
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: httpAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	log.Info().Str("project_id", projectID).Msg("fastpubsubdemo started")
	<-ctx.Done()

	log.Info().Msg("shutting down")
	return broker.Shutdown()
}

func handleEvent(ctx context.Context, msg core.Message) error {
	obslog.Component("demo").Info().Str("message_id", msg.ID).Int("size", msg.Size).Msg("received event")
	return nil
}
