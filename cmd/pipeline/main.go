package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"offer-classifier/internal/app"
	"offer-classifier/internal/config"
	"offer-classifier/internal/dataset"
	"offer-classifier/internal/models"

	"go.uber.org/zap"
)

const usage = `usage: pipeline [-config path] <command> [flags]

commands:
  import      load offers from a JSON array or NDJSON file
  seed-vins   add confirmed suspicious VINs (one per line or first CSV column)
  label-vin   label every offer from its VIN
  propagate   label every offer by description similarity to seed offers
  train       train and evaluate models for one mode
  predict     score one offer (JSON file) with trained models
  export      write the training rows of one mode as CSV
  all         label-vin, propagate, then train both modes
`

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the YAML config")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	logger, err := app.NewLogger(cfg.Log.Development)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, nil, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	if err := run(ctx, a, flag.Arg(0), flag.Args()[1:]); err != nil {
		logger.Error("Command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		a.Close()
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)

	switch cmd {
	case "import":
		file := fs.String("file", "", "offers file (JSON array or NDJSON)")
		fs.Parse(args)
		return importOffers(ctx, a, *file)

	case "seed-vins":
		file := fs.String("file", "", "VIN list (one per line or CSV with VIN in the first column)")
		fs.Parse(args)
		return seedVINs(ctx, a, *file)

	case "label-vin":
		fs.Parse(args)
		return printJSON(a.Labeling.Run(ctx, models.ModeVIN))

	case "propagate":
		threshold := fs.Float64("threshold", a.Config.Threshold(), "cosine similarity threshold")
		fs.Parse(args)
		return printJSON(a.Propagator.Run(ctx, *threshold))

	case "train":
		mode := fs.String("mode", string(models.ModeVIN), "label mode: vin or description")
		names := fs.String("models", "", "comma-separated model names (default: configured models)")
		fs.Parse(args)
		m, err := models.ParseMode(*mode)
		if err != nil {
			return err
		}
		return printJSON(a.Refresher.Train(ctx, m, splitList(*names)))

	case "predict":
		mode := fs.String("mode", string(models.ModeVIN), "label mode: vin or description")
		name := fs.String("model", "", "model name (default: every trained model)")
		file := fs.String("offer", "", "offer summary JSON file")
		fs.Parse(args)
		return predict(ctx, a, *mode, *name, *file)

	case "export":
		mode := fs.String("mode", string(models.ModeVIN), "label mode: vin or description")
		fs.Parse(args)
		m, err := models.ParseMode(*mode)
		if err != nil {
			return err
		}
		rows, err := a.Builder.Build(ctx, m)
		if err != nil {
			return err
		}
		return dataset.WriteCSV(os.Stdout, rows)

	case "all":
		fs.Parse(args)
		return printJSON(a.Refresher.Run(ctx))

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func predict(ctx context.Context, a *app.App, rawMode, name, file string) error {
	mode, err := models.ParseMode(rawMode)
	if err != nil {
		return err
	}
	if file == "" {
		return fmt.Errorf("-offer is required")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read offer: %w", err)
	}
	var summary models.OfferSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return fmt.Errorf("decode offer: %w", err)
	}

	if name == "" {
		return printJSON(a.Predictor.PredictAll(ctx, summary, mode))
	}
	return printJSON(a.Predictor.Predict(ctx, summary, name, mode))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON[T any](v T, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
