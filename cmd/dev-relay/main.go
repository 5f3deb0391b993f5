package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sungwon/notify-mailer/internal/config"
	"github.com/sungwon/notify-mailer/internal/devrelay"
	"github.com/sungwon/notify-mailer/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	rc := cfg.DevRelay

	// Without a capture directory messages are only logged.
	var sink devrelay.Sink = devrelay.Discard{}
	if rc.CaptureDir != "" {
		dir, err := devrelay.NewDirSink(rc.CaptureDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", rc.CaptureDir).Msg("failed to open capture directory")
		}
		sink = dir
	}

	backend := devrelay.NewBackend(devrelay.Options{
		Username: rc.Username,
		Password: rc.Password,
		MaxConns: rc.MaxConnections,
		Reject:   rc.Reject,
	}, sink, log)

	opts := devrelay.ServerOptions{
		Addr:            fmt.Sprintf("%s:%d", rc.Host, rc.Port),
		Domain:          rc.Domain,
		ReadTimeout:     rc.ReadTimeout,
		WriteTimeout:    rc.WriteTimeout,
		MaxMessageBytes: rc.MaxMessageBytes,
		ImplicitTLS:     rc.ImplicitTLS,
	}
	if rc.TLS || rc.ImplicitTLS {
		if rc.CertFile != "" && rc.KeyFile != "" {
			opts.TLSConfig, err = devrelay.LoadTLS(rc.CertFile, rc.KeyFile)
		} else {
			log.Warn().Msg("no tls certificate configured, using a self-signed one")
			opts.TLSConfig, err = devrelay.SelfSignedTLS(rc.Host, rc.Domain)
		}
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure tls")
		}
	}
	s := devrelay.NewServer(backend, opts)

	ln, err := devrelay.Listen(opts)
	if err != nil {
		log.Fatal().Err(err).Str("addr", s.Addr).Msg("failed to listen")
	}

	go func() {
		log.Info().
			Str("addr", s.Addr).
			Str("capture_dir", rc.CaptureDir).
			Bool("tls", opts.TLSConfig != nil).
			Bool("implicit_tls", rc.ImplicitTLS).
			Msg("dev relay listening")
		if err := s.Serve(ln); err != nil {
			log.Error().Err(err).Msg("dev relay error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down dev relay")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dev relay shutdown error")
	}

	log.Info().Msg("dev relay stopped")
}
