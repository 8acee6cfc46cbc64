package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"TokenCouncil/internal/config"
	"TokenCouncil/internal/debate"
	"TokenCouncil/internal/event"
	"TokenCouncil/internal/marketdata"
	"TokenCouncil/internal/narrative"
	"TokenCouncil/internal/opinion"
	"TokenCouncil/internal/recorder"
	"TokenCouncil/internal/scheduler"
	"TokenCouncil/internal/trade"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] TokenCouncil starting...")

	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init market data provider behind the cache
	screener := marketdata.NewScreenerProvider(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	provider := marketdata.NewCache(screener, time.Duration(cfg.DataSource.CallSpacingMS)*time.Millisecond)
	log.Printf("[INFO] data source: %s", screener.Name())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Event bus delivering to the recorder
	bus := event.NewBus(256, rec)
	defer bus.Close()

	// Narrative generator; without an API key the council speaks in
	// canned fallback lines.
	var gen debate.Generator
	if cfg.LLM.APIKey != "" {
		gen = narrative.NewOpenAIGenerator(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
		log.Printf("[INFO] narrative model: %s", cfg.LLM.Model)
	} else {
		log.Println("[WARN] llm.api_key not set, debates use fallback lines")
	}

	seed := cfg.Council.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	personas := opinion.DefaultCouncil()
	council := debate.NewCoordinator(personas, gen, rng, bus, cfg.Council.MaxRounds)

	// Paper trading ledger acts as both balance gate and executor
	names := make([]string, len(personas))
	for i, p := range personas {
		names[i] = p.Name
	}
	ledger, err := trade.NewPaperLedger(cfg.Trade.StateFile, names)
	if err != nil {
		log.Fatalf("[FATAL] init paper ledger: %v", err)
	}
	trader := trade.NewCoordinator(ledger, ledger, bus, trade.Limits{
		MinBalance:  cfg.Trade.MinBalance,
		MinTrade:    cfg.Trade.MinTrade,
		MaxPerTrade: cfg.Trade.MaxPerTrade,
	})

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, provider, council, trader, bus, scheduler.Filters{
		MinLiquidity:  cfg.Scanner.MinLiquidity,
		MinHolders:    cfg.Scanner.MinHolders,
		Cooldown:      time.Duration(cfg.Scanner.CooldownMinutes) * time.Minute,
		TrendingLimit: cfg.Scanner.TrendingLimit,
	})
	if err := sched.RegisterScan(cfg.Scanner.Cron); err != nil {
		log.Fatalf("[FATAL] register scan task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: analyze a specific token on start
	if addr := os.Getenv("ANALYZE_ON_START"); addr != "" {
		log.Printf("[INFO] ANALYZE_ON_START set, requesting analysis of %s", addr)
		go func() {
			if err := sched.RequestAnalysis(addr); err != nil {
				log.Printf("[WARN] startup analysis: %v", err)
			}
		}()
	}

	log.Println("[INFO] TokenCouncil is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] TokenCouncil stopped")
}
