package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mediagen/internal/auth"
	"mediagen/internal/infra"
	"mediagen/internal/infra/credentials"
	"mediagen/internal/middleware"
)

func main() {
	var (
		fileFlag   string
		deleteFlag bool
		noVerify   bool
		tokenTTL   time.Duration
		subject    string
	)
	flag.StringVar(&fileFlag, "file", "", "path to a service-account JSON or base64 file (falls back to GOOGLE_SERVICE_ACCOUNT_BASE64/_JSON)")
	flag.BoolVar(&deleteFlag, "delete", false, "remove the stored service account instead of writing one")
	flag.BoolVar(&noVerify, "no-verify", false, "skip fetching an access token before storing")
	flag.DurationVar(&tokenTTL, "admin-token", 0, "also print an admin bearer token valid for this long (needs ADMIN_JWT_SECRET)")
	flag.StringVar(&subject, "subject", "credkey", "subject of the minted admin token")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger("cli", cfg.LogLevel).With().Str("cmd", "credkey").Logger()

	if tokenTTL > 0 {
		token, err := middleware.SignAdminToken(cfg.AdminJWTSecret, subject, tokenTTL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to sign admin token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		// token only
		if !deleteFlag && fileFlag == "" && cfg.ServiceAccount == "" {
			return
		}
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if deleteFlag {
		if err := store.DeleteServiceAccount(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to delete service account: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("service account removed")
		return
	}

	blob, err := readBlob(fileFlag, cfg.ServiceAccount)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	provider := auth.NewProvider(auth.Options{
		Region:          cfg.Region,
		ProjectOverride: cfg.ProjectID,
		Verify:          cfg.AuthVerify && !noVerify,
		Logger:          &logger,
	})
	ac, err := provider.Authenticate(ctx, blob)
	if err != nil {
		fmt.Fprintf(os.Stderr, "service account not accepted: %v\n", err)
		os.Exit(1)
	}

	props := map[string]any{"client_email": ac.ClientEmail, "project_id": ac.ProjectID}
	if err := store.SetServiceAccount(ctx, blob, props); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist service account: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("service account %s (project %s) stored successfully\n", ac.ClientEmail, ac.ProjectID)
}

func readBlob(path, fallback string) ([]byte, error) {
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return raw, nil
	}
	if strings.TrimSpace(fallback) == "" {
		return nil, fmt.Errorf("service account is required via -file or GOOGLE_SERVICE_ACCOUNT_BASE64/_JSON")
	}
	return []byte(fallback), nil
}
