package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/tether"
	"github.com/aretw0/tether/pkg/core"
)

// jsonTransport writes diagnostic records as JSON lines, the shape the
// companion expects back over the wire.
type jsonTransport struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONTransport(w io.Writer) *jsonTransport {
	return &jsonTransport{enc: json.NewEncoder(w)}
}

func (t *jsonTransport) WriteDiagnostic(ctx context.Context, d core.Diagnostic) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enc.Encode(d)
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Dispatch companion messages from stdin",
	Long: `Read one decoded JSON message per line on stdin and dispatch each
one. Diagnostic replies are written as JSON lines on stdout. Ends on
EOF or SIGINT/SIGTERM.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := slog.Default()

		svc, err := tether.New(
			tether.WithSpoolDir(cfg.SpoolDir),
			tether.WithFilters(cfg.Filters...),
			tether.WithNotifyLevel(cfg.NotifyLevel),
			tether.WithNotifyDuration(cfg.NotifyDuration),
			tether.WithVibrator(&logVibrator{logger: logger}),
			tether.WithDisplay(&logDisplay{logger: logger}),
			tether.WithTransport(newJSONTransport(os.Stdout)),
			tether.WithLogger(logger),
		)
		if err != nil {
			fatal("Failed to initialize tether", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lines := make(chan []byte)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := make([]byte, len(scanner.Bytes()))
				copy(line, scanner.Bytes())
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err := scanner.Err(); err != nil {
				logger.Error("stdin read failed", "error", err)
			}
		}()

		dispatched := 0
		for {
			select {
			case <-ctx.Done():
				logger.Info("shutting down", "dispatched", dispatched)
				return
			case line, ok := <-lines:
				if !ok {
					logger.Info("input closed", "dispatched", dispatched)
					return
				}
				if len(line) == 0 {
					continue
				}
				var raw map[string]any
				if err := json.Unmarshal(line, &raw); err != nil {
					// Framing is the transport's problem; a bad line is
					// reported the same way a bad command would be.
					logger.Warn("undecodable line", "error", err)
					continue
				}
				svc.Dispatch(ctx, raw)
				dispatched++
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
