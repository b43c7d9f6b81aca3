package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/niyyah-app/niyyah-api/internal/config"
	"github.com/niyyah-app/niyyah-api/pkg/activation"
	"github.com/niyyah-app/niyyah-api/pkg/fingerprint"
)

const usage = `usage: activation-client <command>

commands:
  status            restore activation from the local cache or the server
  activate <phone>  bind the license for <phone> to this device
  logout            forget the local activation
  fingerprint       print this device's identifier`

func main() {
	log.SetFlags(0)
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg := config.LoadClient()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	fp := fingerprint.New(
		fingerprint.WithLogger(logger),
		fingerprint.WithFallbackFile(filepath.Join(filepath.Dir(cfg.CachePath), "device_id")),
	)
	client := activation.NewClient(cfg.APIURL, cfg.Timeout)
	cache := activation.NewFileCache(cfg.CachePath)
	session := activation.NewSession(client, fp, cache, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+5*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		state, err := session.Start(ctx)
		printSession(out, session)
		if err != nil {
			return fmt.Errorf("server check failed (state %s): %w", state, err)
		}
		return nil

	case "activate":
		if len(args) < 2 {
			return errors.New("usage: activation-client activate <phone>")
		}
		result, err := session.Activate(ctx, args[1])
		if err != nil {
			var apiErr *activation.APIError
			if errors.As(err, &apiErr) {
				return errors.New(apiErr.Message)
			}
			return err
		}
		fmt.Fprintf(out, "✅ Activated %s on this device (since %s)\n", result.Phone, result.ActivatedAt.Local().Format(time.RFC1123))
		printSession(out, session)
		return nil

	case "logout":
		if err := session.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(out, "👋 Local activation cleared")
		return nil

	case "fingerprint":
		fmt.Fprintln(out, fp.DeviceID())
		if fp.Degraded() {
			fmt.Fprintln(out, "⚠️  no stable device signal found; this identifier is random and kept next to the activation cache")
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

func printSession(out io.Writer, s *activation.Session) {
	fmt.Fprintf(out, "state:    %s\n", s.State())
	fmt.Fprintf(out, "device:   %s\n", s.DeviceID())
	if !s.IsActivated() {
		return
	}
	fmt.Fprintf(out, "phone:    %s\n", s.Phone())
	if p := s.Profile(); p != nil && p.FirstName != nil {
		fmt.Fprintf(out, "welcome:  %s\n", *p.FirstName)
	}
}
