// orderwatch is the CLI for the insertion-order diagnostic.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"orderwatch/internal/config"
	"orderwatch/internal/ingest"
	"orderwatch/internal/logging"
	"orderwatch/internal/monitor"
	"orderwatch/internal/report"
	"orderwatch/internal/store"
)

var (
	configPath = flag.String("config", "", "path to config file")
	formatFlag = flag.String("format", "", "rank stream format: auto, csv, jsonl")
	threshold  = flag.Float64("threshold", 0, "override z-score threshold")
	outputFlag = flag.String("output", "json", "report format for check: json or yaml")
	limitFlag  = flag.Int("limit", 20, "maximum runs to list for history")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)

	switch cmd {
	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: orderwatch check <file>")
			os.Exit(1)
		}
		cmdCheck(flag.Arg(1))
	case "watch":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: orderwatch watch <file>")
			os.Exit(1)
		}
		cmdWatch(flag.Arg(1))
	case "history":
		cmdHistory()
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `orderwatch - insertion-order diagnostic for iterative samplers

Usage: orderwatch [options] <command> [args]

Commands:
  check <file>    Run the diagnostic over a complete rank stream
  watch <file>    Follow a growing rank log and record run lengths
  history         List stored diagnostic runs
  help            Show this help message

Options:
  -config <path>      Path to config file
  -format <name>      Rank stream format: auto, csv, jsonl
  -threshold <z>      Override the z-score threshold
  -output <name>      Report format for check: json or yaml
  -limit <n>          Maximum runs to list for history`)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *threshold > 0 {
		cfg.Monitor.Threshold = *threshold
	}
	if *formatFlag != "" {
		cfg.Input.Format = *formatFlag
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		Component: "orderwatch",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
}

// resolveFormat picks the stream format from config, falling back to the
// file extension.
func resolveFormat(cfg *config.Config, path string) ingest.Format {
	format, err := ingest.ParseFormat(cfg.Input.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if format == ingest.FormatAuto {
		format = ingest.DetectFormat(path)
	}
	return format
}

func cmdCheck(path string) {
	cfg := loadConfig()
	setupLogging(cfg)
	format := resolveFormat(cfg, path)

	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	reader, err := ingest.NewReader(file, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := monitor.New(cfg.Monitor.Threshold, cfg.Monitor.InitialCapacity)
	observations := 0
	for {
		obs, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
			os.Exit(1)
		}
		crossed, err := m.Observe(obs.Rank, obs.NSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error at observation %d: %v\n", observations+1, err)
			os.Exit(1)
		}
		observations++
		if crossed {
			last := m.RunLengths()[len(m.RunLengths())-1]
			logging.Info("run ended",
				"length", last.Length,
				"zscore", last.ZScore,
				"observation", observations)
		}
	}

	finalZ := m.ZScore()
	m.Flush()

	rep := report.New(path, observations, finalZ, m)
	switch *outputFlag {
	case "yaml":
		err = rep.WriteYAML(os.Stdout)
	case "json":
		err = rep.WriteJSON(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format: %s\n", *outputFlag)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}
}

func cmdHistory() {
	cfg := loadConfig()

	s, err := store.Open(cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	runs, err := s.ListRuns(*limitFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No stored runs.")
		return
	}

	fmt.Printf("%-5s %-25s %-30s %10s %10s\n", "ID", "RECORDED", "SOURCE", "OBS", "FINAL Z")
	for _, r := range runs {
		recorded := time.Unix(0, r.CreatedAtNs).Format("2006-01-02 15:04:05")
		fmt.Printf("%-5d %-25s %-30s %10d %10.3f\n",
			r.ID, recorded, truncate(r.Source, 30), r.Observations, r.FinalZScore)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
