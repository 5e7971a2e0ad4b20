package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/depotfs/depotfs/internal/logger"
	"github.com/depotfs/depotfs/pkg/config"
	"github.com/depotfs/depotfs/pkg/repo"
	repoFile "github.com/depotfs/depotfs/pkg/repo/file"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: depotfs [flags] <command> [args]

Commands:
  connect                      Verify the repository is reachable (mounting if needed)
  disconnect                   Unmount the repository share if this run mounted it
  list <kind>                  List item identifiers under a kind (e.g. pkgs, manifests)
  get <identifier> [path]      Fetch an item; write to path or stdout
  put <identifier> <path>      Store a local file as an item
  delete <identifier>          Remove an item

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	repoURL := flag.String("url", "", "Override repository URL")
	initConfig := flag.Bool("init-config", false, "Write a default config file and exit")
	flag.Usage = usage
	flag.Parse()

	if *initConfig {
		path := *configPath
		if path == "" {
			if config.ConfigExists() {
				log.Fatalf("Config file already exists at %s", config.GetDefaultConfigPath())
			}
			path = config.GetDefaultConfigPath()
		}
		if err := config.WriteDefault(path); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// CLI flags override file and environment
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *repoURL != "" {
		cfg.Repo.URL = *repoURL
	}

	// Configure logger
	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if cfg.Logging.Output == "stdout" {
		logger.SetOutput(os.Stdout)
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	// Cancel in-flight repository operations on Ctrl+C
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r, err := config.CreateRepo(ctx, &cfg.Repo)
	if err != nil {
		log.Fatalf("Failed to create repo: %v", err)
	}

	if err := r.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to repo: %v", err)
	}

	if err := run(ctx, r, flag.Args()); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// run dispatches a single repository command.
func run(ctx context.Context, r repo.Repo, args []string) error {
	command, rest := args[0], args[1:]

	switch command {
	case "connect":
		// Connect already ran; reaching this point means the repo is usable
		logger.Info("Repository is reachable")
		return nil

	case "disconnect":
		fr, ok := r.(*repoFile.FileRepo)
		if !ok || !fr.WeMountedRepo() {
			logger.Info("Nothing to unmount")
			return nil
		}
		mountpoint := fr.Root()
		if err := fr.Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to disconnect: %w", err)
		}
		logger.Info("Unmounted %s", mountpoint)
		return nil

	case "list":
		if len(rest) != 1 {
			return fmt.Errorf("usage: depotfs list <kind>")
		}
		items, err := r.List(ctx, rest[0])
		if err != nil {
			return fmt.Errorf("failed to list %q: %w", rest[0], err)
		}
		for _, item := range items {
			fmt.Println(item)
		}
		return nil

	case "get":
		switch len(rest) {
		case 1:
			data, err := r.Get(ctx, rest[0])
			if err != nil {
				return fmt.Errorf("failed to get %q: %w", rest[0], err)
			}
			_, err = os.Stdout.Write(data)
			return err
		case 2:
			if err := r.GetToFile(ctx, rest[0], rest[1]); err != nil {
				return fmt.Errorf("failed to get %q: %w", rest[0], err)
			}
			return nil
		default:
			return fmt.Errorf("usage: depotfs get <identifier> [path]")
		}

	case "put":
		if len(rest) != 2 {
			return fmt.Errorf("usage: depotfs put <identifier> <path>")
		}
		if err := r.PutFromFile(ctx, rest[0], rest[1]); err != nil {
			return fmt.Errorf("failed to put %q: %w", rest[0], err)
		}
		logger.Info("Stored %s", rest[0])
		return nil

	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("usage: depotfs delete <identifier>")
		}
		if err := r.Delete(ctx, rest[0]); err != nil {
			return fmt.Errorf("failed to delete %q: %w", rest[0], err)
		}
		logger.Info("Deleted %s", rest[0])
		return nil

	default:
		return fmt.Errorf("unknown command: %q", command)
	}
}
