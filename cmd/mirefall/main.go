// Package main provides the mirefall binary: a terminal dungeon crawler
// with real-time active-time-battle combat.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mirefall/mirefall/internal/app"
	"github.com/mirefall/mirefall/internal/config"
	"github.com/mirefall/mirefall/internal/game/ai"
	"github.com/mirefall/mirefall/internal/game/combat"
	"github.com/mirefall/mirefall/internal/game/content"
	"github.com/mirefall/mirefall/internal/game/dice"
	"github.com/mirefall/mirefall/internal/game/entity"
	"github.com/mirefall/mirefall/internal/game/explore"
	"github.com/mirefall/mirefall/internal/observability"
	"github.com/mirefall/mirefall/internal/scripting"
	"github.com/mirefall/mirefall/internal/telemetry"
	"github.com/mirefall/mirefall/internal/ui"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = defaults plus MIREFALL_ env vars")
	playerName := flag.String("name", "", "player name override")
	flag.Parse()

	// Optional; local runs keep OTEL_* and MIREFALL_* vars in a .env file.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *playerName != "" {
		cfg.Player.Name = *playerName
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			logger.Fatal("initializing telemetry", zap.Error(err))
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown", zap.Error(err))
			}
		}()
	}

	contentStart := time.Now()
	registry, err := content.Load(cfg.Content.Dir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.String("dir", cfg.Content.Dir),
		zap.Int("monsters", len(registry.Monsters())),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	scriptMgr := scripting.NewManager(logger)
	defer scriptMgr.Close()
	if cfg.Scripting.Dir != "" {
		if err := scriptMgr.LoadDir(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit); err != nil {
			logger.Fatal("loading decision scripts",
				zap.String("dir", cfg.Scripting.Dir), zap.Error(err))
		}
	}

	enemyAI := ai.NewDecider(scriptMgr, registry, logger)
	defer enemyAI.Close()

	term, err := ui.NewTerminal(registry, logger)
	if err != nil {
		logger.Fatal("initializing terminal", zap.Error(err))
	}
	defer term.Close()

	player := entity.NewPlayer(cfg.Player.Name)

	game, err := explore.New(player, registry, enemyAI, term, dice.NewCryptoSource(), logger, explore.Options{
		Combat: combat.SessionOptions{
			TickInterval: cfg.Combat.TickInterval,
			TurnDelay:    cfg.Combat.TurnDelay,
		},
		Width:  cfg.Dungeon.Width,
		Height: cfg.Dungeon.Height,
	})
	if err != nil {
		logger.Fatal("creating game", zap.Error(err))
	}

	logger.Info("mirefall initialized",
		zap.String("player", player.Name),
		zap.Duration("startup", time.Since(start)),
	)

	lifecycle := app.NewLifecycle(logger)

	lifecycle.Add("terminal", &app.FuncService{
		StartFn: func() error {
			term.Run()
			return nil
		},
		StopFn: func() {
			term.Stop()
		},
	})

	lifecycle.Add("game", &app.FuncService{
		StartFn: func() error {
			defer cancel()
			return game.Run(ctx)
		},
		StopFn: func() {
			cancel()
		},
	})

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("run error", zap.Error(err))
	}

	logger.Info("run ended",
		zap.Int("floor", game.Floor()),
		zap.Int("xp", game.XP()),
		zap.String("state", game.State().String()),
	)
}
