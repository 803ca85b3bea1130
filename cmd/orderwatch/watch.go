package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderwatch/internal/ingest"
	"orderwatch/internal/logging"
	"orderwatch/internal/monitor"
	"orderwatch/internal/store"
	"orderwatch/internal/watcher"
)

// cmdWatch follows a growing rank log, logging threshold crossings as they
// happen, and persists the completed run on SIGINT/SIGTERM.
func cmdWatch(path string) {
	cfg := loadConfig()
	setupLogging(cfg)
	format := resolveFormat(cfg, path)

	s, err := store.Open(cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	poll := time.Duration(cfg.Input.PollIntervalMs) * time.Millisecond
	follower, err := watcher.New(path, poll)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := follower.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting follower: %v\n", err)
		os.Exit(1)
	}
	defer follower.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	m := monitor.New(cfg.Monitor.Threshold, cfg.Monitor.InitialCapacity)
	observations := 0

	logging.Info("watching rank log",
		"path", path,
		"format", format.String(),
		"threshold", m.Threshold())

	for {
		select {
		case line, ok := <-follower.Lines():
			if !ok {
				persistRun(s, m, path, observations)
				return
			}
			obs, parsed, err := ingest.ParseLine(line, format)
			if err != nil {
				logging.Warn("skipping bad line", "line", line, "error", err)
				continue
			}
			if !parsed {
				continue
			}

			crossed, err := m.Observe(obs.Rank, obs.NSize)
			if err != nil {
				logging.Error("invalid observation",
					"rank", obs.Rank,
					"nsize", obs.NSize,
					"error", err)
				continue
			}
			observations++

			if crossed {
				last := m.RunLengths()[len(m.RunLengths())-1]
				logging.Info("run ended",
					"length", last.Length,
					"zscore", last.ZScore,
					"observation", observations)
			}

		case err := <-follower.Errors():
			logging.Warn("follower error", "error", err)

		case sig := <-sigCh:
			logging.Info("shutting down", "signal", sig.String())
			persistRun(s, m, path, observations)
			return
		}
	}
}

// persistRun flushes the open run and writes the completed run to the store.
func persistRun(s *store.Store, m *monitor.Monitor, source string, observations int) {
	finalZ := m.ZScore()
	m.Flush()

	if observations == 0 {
		logging.Info("no observations; nothing to persist")
		return
	}

	id, err := s.InsertRun(&store.Run{
		Source:       source,
		CreatedAtNs:  time.Now().UnixNano(),
		Observations: observations,
		FinalZScore:  finalZ,
		Threshold:    m.Threshold(),
	})
	if err != nil {
		logging.Error("persist run", "error", err)
		return
	}

	segments := make([]store.RunLength, 0, len(m.RunLengths()))
	for i, r := range m.RunLengths() {
		segments = append(segments, store.RunLength{
			RunID:     id,
			Ordinal:   i,
			Length:    r.Length,
			ZScore:    r.ZScore,
			Crossed:   r.Crossed,
			EndedAtNs: r.EndedAt.UnixNano(),
		})
	}
	if err := s.InsertRunLengths(id, segments); err != nil {
		logging.Error("persist run lengths", "error", err)
		return
	}

	logging.Info("run persisted",
		"id", id,
		"observations", observations,
		"run_lengths", len(segments),
		"final_zscore", finalZ)
}
