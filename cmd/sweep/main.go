package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/audit"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/config"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/grid"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/inference"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/ledger"
)

// #region main

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	led, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		log.Fatalf("ledger: %v", err)
	}
	defer led.Close()

	var auditStore *audit.Store
	if cfg.AuditDBPath != "" {
		auditStore, err = audit.NewStore(cfg.AuditDBPath)
		if err != nil {
			log.Fatalf("audit store: %v", err)
		}
		defer auditStore.Close()
	}

	httpCfg := inference.DefaultHTTPConfig()
	httpCfg.BaseURL = cfg.BaseURL
	httpCfg.APIKey = cfg.APIKey
	httpCfg.Model = cfg.Model
	httpCfg.Timeout = time.Duration(cfg.RequestTimeoutS) * time.Second
	httpCfg.MaxAttempts = cfg.MaxAttempts
	httpCfg.BaseDelay = time.Duration(cfg.BaseDelayMS) * time.Millisecond
	client := inference.NewHTTPClient(httpCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := grid.New(cfg, client, led, auditStore).Run(ctx)
	if err != nil {
		log.Fatalf("sweep: %v", err)
	}

	fmt.Printf("Done. Wrote %s. planned=%d skipped=%d completed=%d failed=%d elapsed=%s\n",
		cfg.LedgerPath, sum.Planned, sum.Skipped, sum.Completed, sum.Failed,
		sum.Elapsed.Round(time.Second))
	if sum.BudgetHit {
		fmt.Printf("Stopped at the %ds time budget; rerun to resume.\n", cfg.TimeBudgetS)
	}
}

// #endregion main
