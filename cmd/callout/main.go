// Command callout places one outbound phone call through the Retell AI
// platform, waits for it to finish, downloads the call artifacts, and
// optionally asks the vendor to scrub sensitive fields from its stored
// record. It takes no arguments; all settings come from the
// environment (or a .env file in the working directory).
//
// Exit codes: 0 on success, 1 on configuration or API failure, 2 when
// call monitoring timed out.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dimiro1/banner"
	"github.com/google/uuid"
	"github.com/harunnryd/callout/pkg/artifacts"
	"github.com/harunnryd/callout/pkg/callout"
	"github.com/harunnryd/callout/pkg/errorsx"
	"github.com/harunnryd/callout/pkg/logging"
	"github.com/harunnryd/callout/pkg/metrics"
	"github.com/harunnryd/callout/pkg/poller"
	"github.com/harunnryd/callout/pkg/redact"
	"github.com/harunnryd/callout/pkg/retell"
)

const Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	printBanner()

	cfg, err := callout.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 1
	}
	redact.SetEnabled(cfg.RedactPII())

	base := logging.Setup(logging.Options{
		Level:  cfg.Level(),
		Format: cfg.LogFormat,
		Dir:    cfg.AppLogDir,
	})
	log := base.With(slog.String("run_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := retell.NewClient(retell.Config{
		APIKey:  cfg.RetellAPIKey,
		BaseURL: cfg.RetellAPIURL,
	})
	watcher := poller.NewWatcher(client, cfg.PollInterval(), cfg.MaxWait(),
		logging.NewComponentLogger(log, "poller"))
	store := artifacts.NewStore(cfg.ArtifactsDir, client, cfg.StrictArtifacts(),
		logging.NewComponentLogger(log, "artifacts"))

	var obs metrics.Observer = metrics.NoopObserver{}
	if cfg.MetricsPath != "" {
		fileObs, err := metrics.NewFileObserver(cfg.MetricsPath)
		if err != nil {
			log.Warn("metrics disabled", slog.String("error", err.Error()))
		} else {
			defer fileObs.Close()
			obs = fileObs
		}
	}

	pipeline := callout.NewPipeline(cfg, client, watcher, store, obs,
		logging.NewComponentLogger(log, "pipeline"))
	if err := pipeline.Run(ctx); err != nil {
		log.Error("pipeline failed",
			slog.String("reason", string(errorsx.Reason(err))),
			slog.String("error", err.Error()),
		)
		if errorsx.HasReason(err, errorsx.ReasonPollTimeout) {
			return 2
		}
		return 1
	}
	log.Info("pipeline completed")
	return 0
}

func printBanner() {
	tpl := "{{ .Title \"CALLOUT\" \"\" 0 }}\nVersion: " + Version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
