package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/watch"
)

func main() {
	var (
		apiFlag    string
		promptFlag string
		kindFlag   string
		idFlag     string
		interval   time.Duration
		maxWait    time.Duration
		maxErrors  int
	)
	flag.StringVar(&apiFlag, "api", "", "API base URL (defaults to MEDIAGEN_API_URL or http://localhost:$PORT)")
	flag.StringVar(&promptFlag, "prompt", "", "prompt to launch; omit to only poll -id")
	flag.StringVar(&kindFlag, "kind", string(domain.MediaKindVideo), "media kind to launch (IMAGE or VIDEO)")
	flag.StringVar(&idFlag, "id", "", "existing operation id to poll")
	flag.DurationVar(&interval, "interval", 10*time.Second, "time between polls")
	flag.DurationVar(&maxWait, "max-wait", 15*time.Minute, "give up after this long")
	flag.IntVar(&maxErrors, "max-errors", 3, "consecutive failed polls before giving up")
	flag.Parse()

	_ = godotenv.Load()

	logger := infra.NewLogger("cli", os.Getenv("LOG_LEVEL")).With().Str("cmd", "watch").Logger()

	base := strings.TrimSpace(apiFlag)
	if base == "" {
		base = strings.TrimSpace(os.Getenv("MEDIAGEN_API_URL"))
	}
	if base == "" {
		port := strings.TrimSpace(os.Getenv("PORT"))
		if port == "" {
			port = "8080"
		}
		base = "http://localhost:" + port
	}

	if strings.TrimSpace(promptFlag) == "" && strings.TrimSpace(idFlag) == "" {
		fmt.Fprintln(os.Stderr, "either -prompt or -id is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	w := watch.New(watch.Options{
		BaseURL:   base,
		Interval:  interval,
		MaxErrors: maxErrors,
		Logger:    &logger,
	})

	id := strings.TrimSpace(idFlag)
	if id == "" {
		kind, ok := domain.ParseMediaKind(kindFlag)
		if !ok {
			fmt.Fprintf(os.Stderr, "unsupported kind %q\n", kindFlag)
			os.Exit(2)
		}
		launched, err := w.Launch(ctx, promptFlag, kind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "launch failed: %v\n", err)
			os.Exit(1)
		}
		id = launched
	}

	st, err := w.Wait(ctx, id, func(s watch.Status) {
		logger.Info().Str("operation", id).Str("status", s.Status).Msg("poll")
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "watch %s: %v\n", id, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(st)
	if st.Status != string(domain.StateCompleted) {
		os.Exit(1)
	}
}
