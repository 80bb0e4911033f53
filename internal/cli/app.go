package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/searchagent/internal/config"
	dbRedis "github.com/kailas-cloud/searchagent/internal/db/redis"
	logpkg "github.com/kailas-cloud/searchagent/internal/logger"
	"github.com/kailas-cloud/searchagent/internal/metrics"
	"github.com/kailas-cloud/searchagent/internal/repository/keyspace"
	listingrepo "github.com/kailas-cloud/searchagent/internal/repository/listing"
	principalrepo "github.com/kailas-cloud/searchagent/internal/repository/principal"
	"github.com/kailas-cloud/searchagent/internal/repository/runlog"
	storedsearchrepo "github.com/kailas-cloud/searchagent/internal/repository/storedsearch"
	"github.com/kailas-cloud/searchagent/internal/transport/mail"
	"github.com/kailas-cloud/searchagent/internal/usecase/notify"
	"github.com/kailas-cloud/searchagent/internal/version"
)

// channel is a notification channel with a reachability check.
type channel interface {
	notify.Channel
	Check(ctx context.Context) error
}

// app is the composition root shared by the commands.
type app struct {
	env        string
	cfg        config.Config
	log        *zap.Logger
	store      *dbRedis.Store
	principals *principalrepo.Repo
	searches   *storedsearchrepo.Repo
	listings   *listingrepo.Repo
	runs       *runlog.Repo
	channel    channel
	notifier   *notify.Service
}

// loadConfig resolves the config file from --config or ENV.
func loadConfig(opts *RootOptions) (string, config.Config, error) {
	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFile(opts.ConfigPath)
	} else {
		cfg, err = config.Load(env)
	}
	return env, cfg, err
}

// bootstrap loads config, connects to the store and wires repositories and services.
// quiet raises the log level so that progress output is not drowned.
func bootstrap(ctx context.Context, opts *RootOptions, quiet bool) (*app, error) {
	env, cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if quiet && opts.LogLevel == "" {
		level = ""
	}
	log, err := logpkg.NewLogger(logpkg.Options{Env: env, Level: level, Quiet: quiet})
	if err != nil {
		return nil, err
	}

	log.Debug("Starting searchagent",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("mail_driver", cfg.Mail.Driver),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	metrics.RegisterRunMetrics()

	locale, err := language.Parse(cfg.Mail.DefaultLocale)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("mail.default_locale: %w", err)
	}
	ch, err := buildChannel(cfg.Mail, locale, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	keys := keyspace.New(cfg.Storage.KeyPrefix)
	a := &app{
		env:        env,
		cfg:        cfg,
		log:        log,
		store:      store,
		principals: principalrepo.New(store, keys),
		searches:   storedsearchrepo.New(store, keys),
		listings:   listingrepo.New(store, keys).WithPageSize(cfg.Run.PageSize),
		runs:       runlog.New(store, keys, cfg.Storage.LastRunTTL()),
		channel:    ch,
	}
	a.notifier = notify.New(a.searches, a.listings, ch).
		WithRunRecorder(a.runs).
		WithDefaultLocale(locale).
		WithDefaultWorkers(cfg.Run.Workers)

	return a, nil
}

func buildChannel(cfg config.MailConfig, locale language.Tag, log *zap.Logger) (channel, error) {
	renderer, err := mail.NewRenderer(mail.RendererOptions{
		BaseURL:       cfg.BaseURL,
		MaxListings:   cfg.MaxListings,
		DefaultLocale: locale,
	})
	if err != nil {
		return nil, fmt.Errorf("mail renderer: %w", err)
	}

	switch cfg.Driver {
	case "smtp":
		return mail.NewSMTP(mail.SMTPConfig{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Username:   cfg.Username,
			Password:   cfg.Password,
			From:       cfg.From,
			FromName:   cfg.FromName,
			TLSPolicy:  cfg.TLSPolicy,
			Timeout:    cfg.Timeout(),
			RatePerSec: cfg.RatePerSec,
		}, renderer, log.Named("mail"))
	default:
		return mail.NewLog(renderer, log.Named("mail")), nil
	}
}

func (a *app) close() {
	a.store.Close()
	_ = a.log.Sync()
}
