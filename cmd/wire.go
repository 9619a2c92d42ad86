package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/dmarceau/instagram-follower-cli/internal/adapters/export"
	"github.com/dmarceau/instagram-follower-cli/internal/adapters/instagram"
	"github.com/dmarceau/instagram-follower-cli/internal/adapters/ledger"
	"github.com/dmarceau/instagram-follower-cli/internal/adapters/render/report"
	"github.com/dmarceau/instagram-follower-cli/internal/adapters/sessionstore"
	"github.com/dmarceau/instagram-follower-cli/internal/adapters/whitelist"
	"github.com/dmarceau/instagram-follower-cli/internal/application"
	"github.com/dmarceau/instagram-follower-cli/internal/config"
	"github.com/dmarceau/instagram-follower-cli/internal/logger"
	"github.com/dmarceau/instagram-follower-cli/internal/ports"
)

type app struct {
	accounts  *application.AccountService
	collector *application.CollectorService
	policy    *application.PolicyService

	social    ports.SocialGraph
	sessions  ports.SessionRepository
	whitelist ports.WhitelistRepository
	ledger    *ledger.SQLite
	exporter  *export.CSVWriter

	statsRenderer func([]application.Stats, report.StatsOptions) (string, error)
	batchRenderer func(application.BatchReport) (string, error)

	cfg config.Config
	log *logger.Logger
	now func() time.Time
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(os.Stderr, cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	key, err := sessionstore.LoadOrCreateKey(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("wire session key: %w", err)
	}

	sessions, err := sessionstore.New(cfg.SessionsPath, key, log)
	if err != nil {
		return nil, fmt.Errorf("wire session store: %w", err)
	}

	wl, err := whitelist.New(cfg.WhitelistPath)
	if err != nil {
		return nil, fmt.Errorf("wire whitelist: %w", err)
	}

	actionLedger, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("wire action ledger: %w", err)
	}

	var opts []instagram.Option
	if cfg.APIBaseURL != "" {
		opts = append(opts, instagram.WithBaseURL(cfg.APIBaseURL))
	}
	social := instagram.New(log, opts...)

	return &app{
		accounts:      application.NewAccountService(social, sessions, ports.SystemClock{}, log),
		collector:     application.NewCollectorService(social, log),
		policy:        application.NewPolicyService(social, log),
		social:        social,
		sessions:      sessions,
		whitelist:     wl,
		ledger:        actionLedger,
		exporter:      export.NewCSVWriter(cfg.ExportDir),
		statsRenderer: report.RenderStats,
		batchRenderer: report.RenderBatch,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
	}, nil
}

func (a *app) newUnfollowService(cfg application.UnfollowConfig, confirm ports.Confirmer) (*application.UnfollowService, error) {
	return application.NewUnfollowService(
		a.social,
		a.sessions,
		a.ledger,
		ports.SystemClock{},
		ports.TimerSleeper{},
		confirm,
		cfg,
		a.log,
	)
}

func (a *app) Close() error {
	return a.ledger.Close()
}
