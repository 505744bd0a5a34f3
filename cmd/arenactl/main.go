package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/myalloc/arsenal/arena"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/slog"
)

type config struct {
	size     string
	detailed bool
	metrics  bool
	ops      []string
}

func main() {
	var cfg config

	app := kingpin.New("arenactl", "Reserve an arena, run a sequence of allocations and releases against it, and print its statistics.")
	app.Flag("size", "Requested arena size, e.g. 4096 or 64KiB.").Default("4KiB").StringVar(&cfg.size)
	app.Flag("detailed", "List every block in the printed statistics.").BoolVar(&cfg.detailed)
	app.Flag("metrics", "Print arena metrics after the run.").BoolVar(&cfg.metrics)
	logLevel := app.Flag("log-level", "Diagnostic log level.").Default("info").Enum("debug", "info", "warn", "error")
	app.Arg("ops", "Operations: a:<size> allocates, r:<n> releases the nth allocation.").StringsVar(&cfg.ops)

	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := slog.New(slog.HandlerOptions{Level: parseLevel(*logLevel)}.NewTextHandler(os.Stderr))

	if err := run(logger, cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "arenactl: %v\n", err)
		os.Exit(1)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}

func run(logger *slog.Logger, cfg config, out io.Writer) error {
	requested, err := humanize.ParseBytes(cfg.size)
	if err != nil {
		return errors.Wrapf(err, "invalid arena size %q", cfg.size)
	}
	if requested > uint64(arena.MaxArenaSize) {
		return errors.Newf("arena size %s is larger than the maximum of %s", humanize.IBytes(requested), humanize.IBytes(uint64(arena.MaxArenaSize)))
	}

	ops, err := parseOps(cfg.ops)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	arena.SetDefaultOptions(logger, arena.CreateOptions{Metrics: arena.NewMetrics(registry)})

	size, err := arena.Initialize(int(requested))
	if err != nil {
		return err
	}
	defer func() {
		if arena.Default() != nil {
			_ = arena.Destroy()
		}
	}()
	fmt.Fprintf(out, "arena: %s (%d bytes)\n", humanize.IBytes(uint64(size)), size)

	// Failed allocations are kept as Null so the indices on the command line stay stable
	var addresses []arena.Address
	for _, op := range ops {
		switch op.kind {
		case opAllocate:
			address := arena.Allocate(op.value)
			addresses = append(addresses, address)
			status := arena.LastStatus()
			if err := status.Err(); err != nil {
				fmt.Fprintf(out, "allocate %d -> %d (%s: %v)\n", op.value, address, status, err)
			} else {
				fmt.Fprintf(out, "allocate %d -> %d (%s)\n", op.value, address, status)
			}
		case opRelease:
			if op.value >= len(addresses) {
				return errors.Newf("cannot release allocation %d, only %d allocations were made", op.value, len(addresses))
			}
			arena.Release(addresses[op.value])
			fmt.Fprintf(out, "release %d\n", addresses[op.value])
		}
	}

	if err = arena.Default().Validate(); err != nil {
		return err
	}

	fmt.Fprintln(out, arena.Default().BuildStatsString(cfg.detailed))

	if cfg.metrics {
		if err = printMetrics(registry, out); err != nil {
			return err
		}
	}

	return arena.Destroy()
}

func printMetrics(registry *prometheus.Registry, out io.Writer) error {
	families, err := registry.Gather()
	if err != nil {
		return errors.Wrap(err, "failed to gather metrics")
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := ""
			for _, label := range metric.GetLabel() {
				labels += fmt.Sprintf("{%s=%q}", label.GetName(), label.GetValue())
			}

			var value float64
			if counter := metric.GetCounter(); counter != nil {
				value = counter.GetValue()
			} else if gauge := metric.GetGauge(); gauge != nil {
				value = gauge.GetValue()
			}

			fmt.Fprintf(out, "%s%s %v\n", family.GetName(), labels, value)
		}
	}

	return nil
}
