package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"agora/internal/config"
	"agora/internal/live"
	"agora/internal/sim"
	"agora/internal/stats"
	"agora/internal/storage"
	agoraapi "agora/pkg/agora"
)

const exportsDir = "exports"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "serve":
		return runServe(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "strategies":
		return runStrategies(ctx, args[1:])
	case "info":
		return runInfo(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "agora.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := agoraapi.New(agoraapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	profilePath := fs.String("profile", "", "optional run profile YAML path")
	label := fs.String("label", "agora", "run label used in run ids")
	width := fs.Int("width", 30, "grid width")
	height := fs.Int("height", 30, "grid height")
	agents := fs.Int("agents", 120, "initial agent count")
	turns := fs.Int("turns", 10, "turns per generation")
	generations := fs.Int("gens", 50, "generation count")
	seed := fs.Int64("seed", 1, "rng seed")
	torus := fs.Bool("torus", false, "wrap grid edges into a torus")
	penalty := fs.Bool("penalty", false, "enable the cooperative-strategy selection penalty")
	penaltyRate := fs.Float64("penalty-rate", 0.25, "selection penalty rate in [0,1]")
	randomizeMovement := fs.Bool("randomize-movement", false, "assign random movement variants at placement")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "agora.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	var req agoraapi.RunRequest
	if *profilePath == "" {
		req = agoraapi.RunRequest{
			Label:              *label,
			Width:              *width,
			Height:             *height,
			Agents:             *agents,
			TurnsPerGeneration: *turns,
			Generations:        *generations,
			Seed:               *seed,
			Torus:              *torus,
			PenaltyEnabled:     *penalty,
			PenaltyRate:        *penaltyRate,
			RandomizeMovement:  *randomizeMovement,
		}
	} else {
		cfg, err := config.Load(*profilePath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		req = requestFromProfile(cfg)
		err = overrideFromFlags(&req, setFlags, map[string]any{
			"label":              *label,
			"width":              *width,
			"height":             *height,
			"agents":             *agents,
			"turns":              *turns,
			"gens":               *generations,
			"seed":               *seed,
			"torus":              *torus,
			"penalty":            *penalty,
			"penalty-rate":       *penaltyRate,
			"randomize-movement": *randomizeMovement,
		})
		if err != nil {
			return err
		}
	}

	client, err := agoraapi.New(agoraapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	result, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run completed run_id=%s seed=%d generations=%s final_population=%s\n",
		result.RunID,
		req.Seed,
		humanize.Comma(int64(result.Generations)),
		humanize.Comma(int64(result.FinalPopulation)),
	)
	fmt.Printf("final_avg_cooperation=%.4f final_avg_score=%.4f\n",
		result.FinalAvgCooperation,
		result.FinalAvgScore,
	)
	if result.DominantStrategy != "" {
		fmt.Printf("dominant_strategy=%s\n", result.DominantStrategy)
	}
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(result.ArtifactsDir))
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "listen address for the live statistics server")
	stepMS := fs.Int("step-ms", 200, "delay between simulation steps in milliseconds")
	profilePath := fs.String("profile", "", "optional run profile YAML path")
	width := fs.Int("width", 30, "grid width")
	height := fs.Int("height", 30, "grid height")
	agents := fs.Int("agents", 120, "initial agent count")
	turns := fs.Int("turns", 10, "turns per generation")
	seed := fs.Int64("seed", 1, "rng seed")
	torus := fs.Bool("torus", false, "wrap grid edges into a torus")
	penalty := fs.Bool("penalty", false, "enable the cooperative-strategy selection penalty")
	penaltyRate := fs.Float64("penalty-rate", 0.25, "selection penalty rate in [0,1]")
	randomizeMovement := fs.Bool("randomize-movement", false, "assign random movement variants at placement")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *stepMS <= 0 {
		return errors.New("step-ms must be > 0")
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	var req agoraapi.RunRequest
	if *profilePath == "" {
		req = agoraapi.RunRequest{
			Width:              *width,
			Height:             *height,
			Agents:             *agents,
			TurnsPerGeneration: *turns,
			Seed:               *seed,
			Torus:              *torus,
			PenaltyEnabled:     *penalty,
			PenaltyRate:        *penaltyRate,
			RandomizeMovement:  *randomizeMovement,
		}
	} else {
		cfg, err := config.Load(*profilePath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		req = requestFromProfile(cfg)
		err = overrideFromFlags(&req, setFlags, map[string]any{
			"width":              *width,
			"height":             *height,
			"agents":             *agents,
			"turns":              *turns,
			"seed":               *seed,
			"torus":              *torus,
			"penalty":            *penalty,
			"penalty-rate":       *penaltyRate,
			"randomize-movement": *randomizeMovement,
		})
		if err != nil {
			return err
		}
	}

	simulation, err := agoraapi.NewSimulation(agoraapi.SimulationParams{
		Width:              req.Width,
		Height:             req.Height,
		Agents:             req.Agents,
		TurnsPerGeneration: req.TurnsPerGeneration,
		Seed:               req.Seed,
		Torus:              req.Torus,
		PenaltyEnabled:     req.PenaltyEnabled,
		PenaltyRate:        req.PenaltyRate,
		RandomizeMovement:  req.RandomizeMovement,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	step := time.Duration(*stepMS) * time.Millisecond
	fmt.Printf("serving addr=%s step=%s grid=%dx%d agents=%d\n", *addr, step, req.Width, req.Height, req.Agents)

	server := live.NewServer()
	updates := make(chan sim.Statistics)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Run(groupCtx, *addr, updates)
	})
	group.Go(func() error {
		defer close(updates)
		for range channerics.NewTicker(groupCtx.Done(), step) {
			frame, err := simulation.Step()
			if err != nil {
				return err
			}
			select {
			case updates <- frame:
			case <-groupCtx.Done():
				return nil
			}
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}

	fmt.Println("server stopped")
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := agoraapi.New(agoraapi.Options{ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, agoraapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		type runsItem struct {
			RunID               string  `json:"run_id"`
			CreatedAtUTC        string  `json:"created_at_utc"`
			Label               string  `json:"label"`
			Seed                int64   `json:"seed"`
			Width               int     `json:"width"`
			Height              int     `json:"height"`
			Agents              int     `json:"agents"`
			Generations         int     `json:"generations"`
			FinalPopulation     int     `json:"final_population"`
			FinalAvgCooperation float64 `json:"final_avg_cooperation"`
			FinalAvgScore       float64 `json:"final_avg_score"`
		}
		out := make([]runsItem, 0, len(items))
		for _, item := range items {
			out = append(out, runsItem(item))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, item := range items {
		fmt.Printf("run_id=%s created_at=%s label=%s seed=%d grid=%dx%d agents=%d gens=%d final_population=%s final_avg_cooperation=%.4f final_avg_score=%.4f\n",
			item.RunID,
			item.CreatedAtUTC,
			item.Label,
			item.Seed,
			item.Width,
			item.Height,
			item.Agents,
			item.Generations,
			humanize.Comma(int64(item.FinalPopulation)),
			item.FinalAvgCooperation,
			item.FinalAvgScore,
		)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show history for the most recent run from run index")
	limit := fs.Int("limit", 0, "max generations to print (0 for all)")
	jsonOut := fs.Bool("json", false, "emit generation history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "agora.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("history requires --run-id or --latest")
	}

	client, err := agoraapi.New(agoraapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.History(ctx, agoraapi.HistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no generation history")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	for _, rec := range history {
		fmt.Printf("generation=%d population=%d avg_cooperation=%.4f avg_mobility=%.4f avg_score=%.4f",
			rec.Generation,
			rec.Population,
			rec.AvgCooperation,
			rec.AvgMobility,
			rec.AvgScore,
		)
		for _, name := range agoraapi.Strategies() {
			fmt.Printf(" %s=%d", name, rec.StrategyCounts[name])
		}
		fmt.Println()
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", "", "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}
	if *outDir == "" {
		return errors.New("export requires --out")
	}

	client, err := agoraapi.New(agoraapi.Options{ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, agoraapi.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s to=%s\n", summary.RunID, summary.Directory)
	return nil
}

func runStrategies(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("strategies", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit variant listings as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Strategies []string `json:"strategies"`
			Movements  []string `json:"movements"`
		}{agoraapi.Strategies(), agoraapi.MoveVariants()})
	}

	fmt.Printf("strategies=%s\n", strings.Join(agoraapi.Strategies(), ","))
	fmt.Printf("movements=%s\n", strings.Join(agoraapi.MoveVariants(), ","))
	return nil
}

func runInfo(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "agora.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := stats.ListRunIndex(exportsDir)
	if err != nil {
		return err
	}

	fmt.Printf("store=%s db_path=%s exports_dir=%s runs_indexed=%d\n", *storeKind, *dbPath, exportsDir, len(entries))
	if info, err := os.Stat(*dbPath); err == nil {
		fmt.Printf("db_size=%s\n", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: agoractl <init|run|serve|runs|history|export|strategies|info> [flags]", msg)
}
