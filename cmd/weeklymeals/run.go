package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pevans/weeklymeals/discovery"
	"github.com/pevans/weeklymeals/history"
	"github.com/pevans/weeklymeals/mailer"
	"github.com/pevans/weeklymeals/planner"
	"github.com/pevans/weeklymeals/sources"
)

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := zap.L()

	if err := cfg.Validate(); err != nil {
		return err
	}

	registry, err := sources.LoadFile(cfg.SourcesFile, sources.Default())
	if err != nil {
		return err
	}

	opts := planner.Options{Debug: debugMode}
	if debugMode {
		opts.Source, _ = cmd.Flags().GetString("source")
		if opts.Source == "" {
			if opts.Source, err = pickSource(cmd.InOrStdin(), cmd.OutOrStdout(), registry.Names()); err != nil {
				return err
			}
		}
	}

	fetcher := discovery.NewHTTPFetcher(discovery.HTTPOptions{
		UserAgent:         cfg.Fetch.UserAgent,
		Timeout:           cfg.FetchTimeout(debugMode),
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
	})

	deps := planner.Deps{
		DataDir:   cfg.DataDir,
		Registry:  registry,
		Threshold: cfg.RefreshThreshold(),
		Acquirer:  discovery.NewAcquirer(fetcher, discovery.SchemaParser{}, discovery.DefaultFilter(), log),
		Renderer:  mailer.NewRenderer(version),
		Sender: mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.Sender,
			Password: cfg.Mail.Password,
		}, log),
		Mail: planner.Mail{
			From:    cfg.Mail.Sender,
			Bcc:     mailer.SplitAddresses(cfg.Mail.Bcc),
			Subject: cfg.Mail.Subject,
		},
		Logger: log,
	}

	if !debugMode {
		st, err := openHistory()
		if err != nil {
			// Planning still works without history.
			log.Warn("run history unavailable", zap.Error(err))
		} else {
			defer st.Close() //nolint:errcheck
			deps.History = st
		}
	}

	p := planner.New(deps)
	res, err := p.Run(ctx, opts)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		if reportErr := p.ReportFailure(ctx, err); reportErr != nil {
			log.Error("failed to report run failure", zap.Error(reportErr))
		}
		return err
	}

	log.Info("run finished",
		zap.String("run_id", res.RunID.String()),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("meals", len(res.Meals)))
	return nil
}

// openHistory opens the history database in the data directory, creating
// the directory when needed.
func openHistory() (*history.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, eris.Wrap(err, "failed to create data directory")
	}
	return history.Open(filepath.Join(cfg.DataDir, history.DefaultFile))
}
