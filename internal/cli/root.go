// Package cli implements the ollamakit command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ollamakit/pkg/ollama"
)

// Version is set at build time with -ldflags "-X ollamakit/internal/cli.Version=...".
var Version = "dev"

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	host     string
	logLevel string
	envFile  string
	timeout  time.Duration

	log zerolog.Logger
}

// clientOptions carries --timeout and the logger to every client a command builds.
func (o *rootOptions) clientOptions() []ollama.Option {
	opts := []ollama.Option{ollama.WithLogger(o.log)}
	if o.timeout > 0 {
		opts = append(opts, ollama.WithTimeout(o.timeout))
	}
	return opts
}

// client builds an Ollama client for --host, falling back to OLLAMA_HOST.
func (o *rootOptions) client(extra ...ollama.Option) *ollama.Client {
	return ollama.New(o.host, append(o.clientOptions(), extra...)...)
}

// NewRootCmd constructs the command tree. stderr receives logs.
func NewRootCmd(stderr io.Writer) *cobra.Command {
	o := &rootOptions{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "ollamakit",
		Short:         "Ollama client, chat REPL and web UI",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	root.PersistentFlags().StringVar(&o.host, "host", "", "Ollama server URL (defaults OLLAMA_HOST or "+ollama.DefaultHost+")")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&o.envFile, "env-file", ".env", "Environment file loaded before anything else; missing is fine")
	root.PersistentFlags().DurationVar(&o.timeout, "timeout", 0, "Per-request timeout for the Ollama client (0 = none)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(o.envFile); err != nil {
			return err
		}
		log, err := newLogger(stderr, o.logLevel)
		if err != nil {
			return err
		}
		o.log = log
		return nil
	}

	root.AddCommand(
		newServeCmd(o),
		newChatCmd(o),
		newGenerateCmd(o),
		newModelsCmd(o),
		newCreateCmd(o),
		newEmbedCmd(o),
		newBlobCmd(o),
		newVersionCmd(o),
	)
	return root
}

// Execute runs the command tree with os.Args and returns the exit code.
func Execute() int {
	root := NewRootCmd(os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		return 1
	}
	return 0
}

// loadEnvFile loads KEY=VALUE pairs without overriding variables that are
// already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level %q", level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTTY(w)}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger(), nil
}
