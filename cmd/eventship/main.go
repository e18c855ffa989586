package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/eventship"
	"github.com/bft-labs/eventship/internal/cliconfig"
	pkglog "github.com/bft-labs/eventship/pkg/log"
	"github.com/bft-labs/eventship/plugins/configwatcher"
)

const helpBanner = `
                          _       _     _
  _______   _____ _ __ | |_ ___| |__ (_)_ __
 / _ \ \ / / _ \ '_ \| __/ __| '_ \| | '_ \
|  __/\ V /  __/ | | | |_\__ \ | | | | |_) |
 \___| \_/ \___|_| |_|\__|___/_| |_|_| .__/
                                     |_|
`

const helpDescription = `
Pipe analytics events into eventship and it batches them to your ingestion
endpoint without blocking the producer.

Highlights:
  - Reads JSON-lines events from stdin or a file and enqueues them instantly.
  - Flushes on a schedule (default every 2s, 100 events per batch) and fully
    on shutdown, so nothing read is left behind.
  - Configure via file, env (EVENTSHIP_*), or flags; retune batch size and
    interval at runtime by editing the config file.

Each input line is one event:
  {"type":"track","payload":{"userId":"u1","event":"signup"}}
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  tail -f events.jsonl | eventship --write-key <key>
  eventship --input events.jsonl --write-key <key> --batch-interval 5s
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// inputEvent is one JSON line of the input stream.
type inputEvent struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "eventship",
		Short:   "Batch analytics events from stdin to your ingestion endpoint",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.eventship/config.toml),
			// then apply env and flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment variables override file config but are overridden
			// by flags (checked via changed map).
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			policy, err := eventship.ParseFailurePolicy(cfg.FailurePolicy)
			if err != nil {
				return err
			}

			// Log configuration (masking the write key)
			logCfg := cfg
			if len(logCfg.WriteKey) > 0 {
				logCfg.WriteKey = "*****"
			}
			log.Info().Interface("config", logCfg).Msg("configuration")

			libCfg := eventship.Config{
				WriteKey:      cfg.WriteKey,
				Endpoint:      cfg.Endpoint,
				InstanceID:    cfg.InstanceID,
				MaxBatchSize:  cfg.MaxBatchSize,
				BatchInterval: cfg.BatchInterval,
				HTTPTimeout:   cfg.HTTPTimeout,
				FailurePolicy: policy,
			}

			zerologAdapter := pkglog.NewZerologAdapterWithLogger(log)

			opts := []eventship.Option{
				eventship.WithLogger(zerologAdapter),
			}
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				// Watch the config file so max_batch_size and batch_interval
				// can be retuned while the pipe is running.
				opts = append(opts, configwatcher.WithConfigWatcher(configwatcher.Config{
					Path: cfgFile,
				}))
			}

			client, err := eventship.New(libCfg, opts...)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			if err := client.Start(ctx); err != nil {
				return fmt.Errorf("start client: %w", err)
			}

			in, closeIn, err := openInput(cfg.Input)
			if err != nil {
				return err
			}
			defer closeIn()

			// Read the input stream until EOF or cancellation.
			doneCh := make(chan error, 1)
			go func() {
				doneCh <- readEvents(ctx, in, client, cfg.Verbose, log)
			}()

			// On signal the reader goroutine may still be blocked in a read;
			// it is abandoned and dies with the process.
			var readErr error
			select {
			case <-sigCh:
				log.Info().Msg("received signal, stopping...")
				cancel()
			case readErr = <-doneCh:
			}

			// Deliver whatever is still queued before shutting down.
			flushCtx, flushCancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
			defer flushCancel()
			if err := client.Flush(flushCtx); err != nil {
				log.Error().Err(err).Msg("final flush")
			}

			if err := client.Stop(); err != nil {
				return fmt.Errorf("stop client: %w", err)
			}
			return readErr
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.eventship/config.toml)")
	root.Flags().StringVar(&cfg.WriteKey, "write-key", cfg.WriteKey, "write key for authentication")
	root.Flags().StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, fmt.Sprintf("ingestion service URL (defaults to %s)", eventship.DefaultEndpoint))
	root.Flags().StringVar(&cfg.InstanceID, "instance-id", cfg.InstanceID, "instance identifier sent with each batch (optional)")
	root.Flags().StringVar(&cfg.Input, "input", cfg.Input, "JSON-lines event source: a file path, or \"-\" for stdin")

	root.Flags().IntVar(&cfg.MaxBatchSize, "max-batch-size", cfg.MaxBatchSize, "maximum events per scheduled batch")
	root.Flags().DurationVar(&cfg.BatchInterval, "batch-interval", cfg.BatchInterval, "scheduled flush interval")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")
	root.Flags().StringVar(&cfg.FailurePolicy, "failure-policy", cfg.FailurePolicy, "what to do with a batch whose send failed: drop or requeue")

	root.Flags().BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log each enqueued event")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("eventship")
		os.Exit(1)
	}
}

// openInput returns the event source reader and a close function.
func openInput(input string) (io.Reader, func(), error) {
	if input == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// readEvents parses JSON-lines events and enqueues them until EOF or
// cancellation. Malformed lines are logged and skipped; only a broken
// input stream aborts the read.
func readEvents(ctx context.Context, in io.Reader, client *eventship.Client, verbose bool, log zerolog.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ie inputEvent
		if err := json.Unmarshal([]byte(line), &ie); err != nil {
			log.Warn().Err(err).Int("line", lineNo).Msg("skipping malformed event")
			continue
		}
		typ := eventship.EventType(ie.Type)
		if !typ.Valid() {
			log.Warn().Str("type", ie.Type).Int("line", lineNo).Msg("skipping event of unknown type")
			continue
		}

		client.Enqueue(eventship.NewEvent(typ, ie.Payload))
		if verbose {
			log.Debug().Str("type", ie.Type).Int("line", lineNo).Msg("enqueued event")
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
