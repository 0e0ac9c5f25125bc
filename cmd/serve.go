package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hvga/hvga-og/internal/server"
	"github.com/hvga/hvga-og/internal/speech"
	"github.com/hvga/hvga-og/internal/telemetry"
)

var (
	servePort   int
	servePublic string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HVGA OG HTTP server",
	Long: `Starts the chat API used by the web client: /api/chat, speech-to-text,
members, feedback and config routes, plus the static client files.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config and PORT)")
	serveCmd.Flags().StringVar(&servePublic, "public", "", "directory of static client files")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if servePublic != "" {
		cfg.Server.PublicDir = servePublic
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      Version,
		Insecure:     cfg.Telemetry.Insecure,
		SampleRatio:  cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("flushing traces")
		}
	}()

	a, err := buildApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	go a.runSweeper(ctx)

	host := cfg.Server.Host
	if cfg.Server.Serverless {
		// The platform routes to the port it assigned; bind every interface.
		host = ""
	}

	srv := server.New(server.Config{
		Host:           host,
		Port:           cfg.Server.Port,
		PublicDir:      cfg.Server.PublicDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: seconds(cfg.Server.RequestTimeout),
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		Version:        Version,
		DeepgramAPIKey: cfg.Speech.DeepgramAPIKey,
	}, server.Deps{
		Chat:    a.engine,
		Speech:  speech.NewDeepgram(cfg.Speech.DeepgramAPIKey, cfg.Speech.Endpoint, seconds(cfg.Speech.TimeoutSeconds)),
		Backend: a.backend,
	})

	// drained closes once Shutdown has finished draining requests.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		log.Info().Msg("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().
		Str("primary", string(cfg.Primary.Type)).
		Str("model", cfg.Primary.Model).
		Str("fallback", string(cfg.Fallback.Type)).
		Str("sessions", string(cfg.Session.Store)).
		Str("knowledge", cfg.KnowledgeFile).
		Msg("hvga og starting")

	return serveUntilDrained(srv.Start, stop, drained)
}

// serveUntilDrained runs start and, once it returns, waits for the shutdown
// goroutine to finish. A listener failure triggers stop so the wait ends.
func serveUntilDrained(start func() error, stop func(), drained <-chan struct{}) error {
	err := start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-drained
		return fmt.Errorf("server failed: %w", err)
	}
	<-drained
	return nil
}
