package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ollamakit/internal/common/fsutil"
	"ollamakit/internal/config"
	"ollamakit/internal/httpapi"
	"ollamakit/internal/manager"
	"ollamakit/internal/settings"
	"ollamakit/pkg/ollama"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	var (
		cfgPath string
		flags   config.Config
		origins string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		Example: "  ollamakit serve --addr :8000\n" +
			"  ollamakit serve --config ollamakit.yaml --settings-db ~/.ollamakit/settings.db",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := serveConfig(cmd, cfgPath, flags, origins, o.host)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, o.log)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&cfgPath, "config", "c", "", "Config file (.yaml, .json or .toml)")
	f.StringVar(&flags.Addr, "addr", "", "HTTP listen address (default "+config.DefaultAddr+")")
	f.StringVar(&flags.DataDir, "data-dir", "", "Directory for settings and conversations (default "+config.DefaultDataDir+")")
	f.StringVar(&flags.SettingsFile, "settings-file", "", "Settings JSON file")
	f.StringVar(&flags.SettingsDB, "settings-db", "", "Keep settings in this SQLite file instead of the JSON file")
	f.StringVar(&flags.DefaultModel, "model", "", "Model used when the settings name none")
	f.IntVar(&flags.RequestTimeoutSeconds, "request-timeout", 0, "Timeout in seconds for a chat request (0 = none)")
	f.StringVar(&origins, "cors-origins", "", "Comma-separated origins allowed by CORS; empty disables CORS")
	return cmd
}

// serveConfig layers the config file, the environment and the flags that
// were set, in that order.
func serveConfig(cmd *cobra.Command, path string, flags config.Config, origins, host string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	cfg, err := cfg.ApplyEnv(os.Getenv)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.Addr = flags.Addr
	}
	if f.Changed("data-dir") {
		cfg.DataDir = flags.DataDir
	}
	if f.Changed("settings-file") {
		cfg.SettingsFile = flags.SettingsFile
	}
	if f.Changed("settings-db") {
		cfg.SettingsDB = flags.SettingsDB
	}
	if f.Changed("model") {
		cfg.DefaultModel = flags.DefaultModel
	}
	if f.Changed("request-timeout") {
		cfg.RequestTimeoutSeconds = flags.RequestTimeoutSeconds
	}
	if f.Changed("cors-origins") {
		cfg.CORSOrigins = config.SplitCSV(origins)
	}
	if host != "" {
		cfg.OllamaHost = host
	}
	cfg = cfg.WithDefaults()
	for _, p := range []*string{&cfg.DataDir, &cfg.SettingsFile, &cfg.SettingsDB, &cfg.ConversationsDir, &cfg.DeletedDir} {
		if *p, err = fsutil.ExpandHome(*p); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func openStore(cfg config.Config, log zerolog.Logger) (settings.Store, error) {
	if cfg.SettingsDB != "" {
		return settings.OpenGormStore(cfg.SettingsDB, log)
	}
	return settings.NewFileStore(cfg.SettingsFile, log)
}

// newManager builds the chat manager from cfg and the stored settings. An
// explicit Ollama host wins over the settings' base_url.
func newManager(ctx context.Context, cfg config.Config, store settings.Store, log zerolog.Logger) (*manager.Manager, settings.Document, error) {
	doc, err := settings.Load(ctx, store)
	if err != nil {
		return nil, doc, err
	}
	baseURL := doc.Host()
	if cfg.OllamaHost != "" {
		baseURL = cfg.OllamaHost
	}
	model := doc.DefaultModel()
	if model == settings.FallbackModel && cfg.DefaultModel != "" {
		model = cfg.DefaultModel
	}
	hc := &http.Client{Transport: httpapi.InstrumentTransport(nil)}
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		BaseURL:          baseURL,
		Model:            model,
		ConversationsDir: cfg.ConversationsDir,
		DeletedDir:       cfg.DeletedDir,
		RequestTimeout:   time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		ClientOptions:    []ollama.Option{ollama.WithHTTPClient(hc), ollama.WithLogger(log)},
		Logger:           &log,
		Publisher:        manager.NewLogPublisher(log),
	})
	if err != nil {
		return nil, doc, err
	}
	if p, ok := doc.Preset(doc.ManageModels.DefaultPreset); ok {
		mgr.UsePreset(p)
	}
	return mgr, doc, nil
}

func configureHTTP(cfg config.Config, log zerolog.Logger) {
	httpapi.SetLogger(log)
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetRequestTimeoutSeconds(int64(cfg.RequestTimeoutSeconds))
	httpapi.SetSaveRateLimit(cfg.SaveRatePerSec, cfg.SaveBurst)
	httpapi.SetCORSOptions(len(cfg.CORSOrigins) > 0, cfg.CORSOrigins,
		[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
		[]string{"Accept", "Content-Type", "X-Log-Level", "X-Request-Id"})
}

func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	mgr, _, err := newManager(ctx, cfg, store, log)
	if err != nil {
		return err
	}
	configureHTTP(cfg, log)
	httpapi.SetBaseContext(ctx)

	// Hand edits to the settings file take effect without a restart.
	if fs, ok := store.(*settings.FileStore); ok {
		err := fs.Watch(ctx, func(raw json.RawMessage) {
			doc, err := settings.Decode(raw)
			if err != nil {
				log.Warn().Err(err).Msg("settings reload")
				return
			}
			if host := doc.Host(); cfg.OllamaHost == "" && host != mgr.BaseURL() {
				mgr.SetBaseURL(host)
			}
		})
		if err != nil {
			log.Warn().Err(err).Str("path", fs.Path()).Msg("settings watch disabled")
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr, store),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("ollama", mgr.BaseURL()).Str("model", mgr.Model()).Msg("ollamakit listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	// Graceful shutdown (Ctrl+C / SIGTERM)
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
