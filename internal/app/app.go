package app

import (
	"context"
	"fmt"
	"strings"

	"connkit/pkg/config"
	"connkit/pkg/upload"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	sweepCancel context.CancelFunc
}

// New initializes resources that do not require a running context (upload
// ledger, config validation). It does not start the sweeper or the HTTP
// servers; call Run to start those and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	ledger := eff.LedgerPath
	if ledger == "" {
		ledger = "./.uploads-ledger"
	}
	if err := upload.EnsureDirs(eff.Config.Uploads.Dir, ledger); err != nil {
		return nil, err
	}
	if err := upload.Open(ledger); err != nil {
		return nil, fmt.Errorf("failed to open upload ledger at %s: %w", ledger, err)
	}

	return &App{eff: eff, version: version, commit: commit, buildDate: buildDate}, nil
}

// Run starts the upload sweeper and the HTTP server(s), and blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	cancel, err := upload.StartSweeper(ctx,
		a.eff.Config.Uploads.SweepCron,
		a.eff.Config.Uploads.MaxAgeDuration())
	if err != nil {
		return err
	}
	a.sweepCancel = cancel

	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.stop()
		return nil
	case err := <-errCh:
		a.stop()
		return err
	}
}

func (a *App) stop() {
	if a.sweepCancel != nil {
		a.sweepCancel()
	}
	_ = upload.Close()
}

// adapterKind normalizes the configured adapter selection.
func (a *App) adapterKind() string {
	k := strings.ToLower(strings.TrimSpace(a.eff.Config.Adapter.Kind))
	if k == "" {
		k = "nethttp"
	}
	return k
}

func validateConfig(eff config.EffectiveConfigResult) error {
	switch strings.ToLower(strings.TrimSpace(eff.Config.Adapter.Kind)) {
	case "", "nethttp", "fasthttp":
	default:
		return fmt.Errorf("unknown adapter kind: %s", eff.Config.Adapter.Kind)
	}
	if eff.Config.Adapter.MaxBody < 0 {
		return fmt.Errorf("adapter.max_body must not be negative")
	}
	if eff.Config.Adapter.ChunkSize < 0 {
		return fmt.Errorf("adapter.chunk_size must not be negative")
	}
	tls := eff.Config.Server.TLS
	if (tls.CertFile == "") != (tls.KeyFile == "") {
		return fmt.Errorf("tls cert_file and key_file must be set together")
	}
	return nil
}
