package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"teapod/internal/config"
	"teapod/internal/downloads"
	"teapod/internal/logging"
	"teapod/internal/playback"
	"teapod/internal/repository"
	"teapod/internal/subscriptions"
	"teapod/internal/tui"
)

func main() {
	importOPML := flag.String("import-opml", "", "import subscriptions from an OPML file and exit")
	exportOPML := flag.String("export-opml", "", "export subscriptions to an OPML file and exit")
	configure := flag.Bool("configure", false, "edit the configuration interactively and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("failed to resolve home directory: %v", err)
	}

	baseDir := filepath.Join(home, ".teapod")
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		log.Fatalf("failed to create config directory: %v", err)
	}

	logPath := filepath.Join(baseDir, "teapod.log")
	logging.Configure(logPath)

	configPath := filepath.Join(baseDir, "config.yaml")
	cfg, err := config.Ensure(ctx, configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if *configure {
		edited, err := config.EditInteractive(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error editing configuration: %v\n", err)
			os.Exit(1)
		}
		if err := config.Save(configPath, edited); err != nil {
			fmt.Fprintf(os.Stderr, "error saving configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "Configuration saved to %s.\n", configPath)
		return
	}

	store := repository.New(cfg.DataRoot)
	podcasts, err := store.ListPersisted()
	if err != nil {
		log.Fatalf("failed to load podcast records: %v", err)
	}

	httpClient := newHTTPClient(cfg)
	sync := subscriptions.NewService(store, httpClient, cfg.UserAgent)
	dl := downloads.NewService(store, httpClient, cfg.UserAgent)
	player := playback.NewManager(dl)

	if *importOPML != "" && *exportOPML != "" {
		fmt.Fprintln(os.Stderr, "error: --import-opml and --export-opml cannot be used together")
		os.Exit(1)
	}

	if *exportOPML != "" {
		count, err := sync.ExportOPML(*exportOPML, podcasts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error exporting OPML: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "Exported %d subscriptions to %s.\n", count, *exportOPML)
		return
	}

	if *importOPML != "" {
		result, err := sync.ImportOPML(ctx, *importOPML, podcasts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error importing OPML: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "Imported %d subscriptions, skipped %d already subscribed.\n", len(result.Added), result.Skipped)
		if len(result.Errors) > 0 {
			fmt.Fprintln(os.Stdout, "Errors encountered:")
			for _, msg := range result.Errors {
				fmt.Fprintf(os.Stdout, "  %s\n", msg)
			}
		}
		return
	}

	if err := tui.Run(ctx, cfg, sync, player, podcasts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newHTTPClient(cfg config.Config) *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.TLSVerify},
	}
	if proxyURL := strings.TrimSpace(cfg.Proxy); proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	}
	return &http.Client{Timeout: 15 * time.Second, Transport: transport}
}
