package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/config"
	"github.com/palemoky/spelling-bee/internal/logger"
	"github.com/palemoky/spelling-bee/internal/relay"
	"github.com/palemoky/spelling-bee/internal/room"
	"github.com/palemoky/spelling-bee/internal/server"
	"github.com/palemoky/spelling-bee/internal/server/httpapi"
	"github.com/palemoky/spelling-bee/internal/server/storage"
	"github.com/palemoky/spelling-bee/internal/words"
)

// flags 命令行参数，设置后覆盖配置文件
type flags struct {
	config    string
	envFile   string
	host      string
	port      int
	publicURL string
	transport string
	redisAddr string
	mirror    bool
	backend   string
	wordsFile string
	dsn       string
	logLevel  string
	logFormat string
}

func newCmd(f *flags) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SPELLINGBEE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "spelling-bee-server",
		Short:   "Room relay and word bank for live spelling bee rounds.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&f.config, "config", "c", "configs/config.yaml", "config file path (env: SPELLINGBEE_CONFIG)")
	fs.StringVar(&f.envFile, "env-file", ".env", ".env file to load before reading the environment")
	fs.StringVarP(&f.host, "host", "b", "", "address to bind to (env: SPELLINGBEE_HOST)")
	fs.IntVarP(&f.port, "port", "p", 0, "port to listen on (env: SPELLINGBEE_PORT)")
	fs.StringVar(&f.publicURL, "public-url", "", "base URL encoded in room QR codes (env: SPELLINGBEE_PUBLIC_URL)")
	fs.StringVar(&f.transport, "transport", "", "relay transport: broadcast or redis (env: SPELLINGBEE_TRANSPORT)")
	fs.StringVar(&f.redisAddr, "redis-addr", "", "redis address (env: SPELLINGBEE_REDIS_ADDR)")
	fs.BoolVar(&f.mirror, "mirror", false, "mirror room snapshots to redis (env: SPELLINGBEE_MIRROR)")
	fs.StringVar(&f.backend, "words-backend", "", "word bank backend: file, postgres or sqlite (env: SPELLINGBEE_WORDS_BACKEND)")
	fs.StringVar(&f.wordsFile, "words-file", "", "word bank json file (env: SPELLINGBEE_WORDS_FILE)")
	fs.StringVar(&f.dsn, "words-dsn", "", "database DSN for the gorm backends (env: SPELLINGBEE_WORDS_DSN)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (env: SPELLINGBEE_LOG_LEVEL)")
	fs.StringVar(&f.logFormat, "log-format", "", "json or console (env: SPELLINGBEE_LOG_FORMAT)")

	// .env 要在读取环境变量之前加载
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		if f.envFile != "" {
			if err := config.LoadDotEnv(f.envFile); err != nil {
				return err
			}
		}
		fs.VisitAll(func(fl *pflag.Flag) {
			_ = v.BindPFlag(fl.Name, fl)
			_ = v.BindEnv(fl.Name)
			if !fl.Changed && v.IsSet(fl.Name) {
				_ = fs.Set(fl.Name, fmt.Sprintf("%v", v.Get(fl.Name)))
			}
		})
		return nil
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("spelling-bee-server v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// load reads the config file and applies every flag that was set on the
// command line or through the environment.
func (f *flags) load(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(f.config)
	if err != nil {
		return nil, err
	}

	set := fs.Changed
	if set("host") {
		cfg.Server.Host = f.host
	}
	if set("port") {
		cfg.Server.Port = f.port
	}
	if set("public-url") {
		cfg.Server.PublicURL = f.publicURL
	}
	if set("transport") {
		cfg.Relay.Transport = f.transport
	}
	if set("redis-addr") {
		cfg.Redis.Addr = f.redisAddr
	}
	if set("mirror") {
		cfg.Redis.Mirror = f.mirror
	}
	if set("words-backend") {
		cfg.Words.Backend = f.backend
	}
	if set("words-file") {
		cfg.Words.File = f.wordsFile
	}
	if set("words-dsn") {
		cfg.Words.DSN = f.dsn
	}
	if set("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if set("log-format") {
		cfg.Log.Format = f.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openRedis connects when cfg needs Redis and returns a nil client
// otherwise.
func openRedis(ctx context.Context, cfg *config.Config) (redis.UniversalClient, error) {
	if !cfg.NeedsRedis() {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	rdb, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	var (
		regOpts []room.Option
		mirror  httpapi.RoomLister
	)
	if cfg.Redis.Mirror {
		store := storage.NewRedisStore(rdb)
		regOpts = append(regOpts, room.WithMirror(store))
		mirror = store
	}
	registry := room.NewRegistry(log.Named("rooms"), regOpts...)
	defer registry.Close()

	rel, err := relay.New(cfg.Relay, registry, rdb, log.Named("relay"))
	if err != nil {
		return err
	}
	defer func() { _ = rel.Close() }()

	store, err := words.OpenStore(cfg.Words, log.Named("words"))
	if err != nil {
		return fmt.Errorf("open word bank: %w", err)
	}
	bank := words.NewBank(store, log.Named("words"), nil)
	defer func() { _ = bank.Close() }()

	srv, err := server.NewServer(server.Deps{
		Config:   cfg,
		Logger:   log,
		Registry: registry,
		Relay:    rel,
		Bank:     bank,
		Mirror:   mirror,
	})
	if err != nil {
		return err
	}

	log.Info("🐝 spelling bee server starting",
		zap.String("version", releaseVersion),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("words", cfg.Words.Backend),
	)
	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
