package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BrunoKrugel/jpegcheck/internal/client"
	"github.com/BrunoKrugel/jpegcheck/internal/config"
	"github.com/BrunoKrugel/jpegcheck/internal/frame"
	"github.com/BrunoKrugel/jpegcheck/internal/inspector"
	"github.com/BrunoKrugel/jpegcheck/internal/logger"
	"github.com/BrunoKrugel/jpegcheck/internal/scanner"
	"github.com/BrunoKrugel/jpegcheck/internal/server"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
)

const usage = `Usage: jpegcheck <command> [flags] [args]

Commands:
  inspect  FILE...    report signature, terminator and corruption per file
  scan     DIR        inspect every candidate under DIR
  watch    DIR        inspect candidates as they are written under DIR
  repair   SRC DST    write SRC without trailing zero bytes to DST
  serve               poll configured cameras and serve reports over HTTP
`

// patternList collects repeated -pattern flags.
type patternList []string

func (p *patternList) String() string { return strings.Join(*p, ",") }

func (p *patternList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if isHelp(os.Args[1]) {
		fmt.Fprint(os.Stdout, usage)
		return
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	log := logger.New(logger.FromConfig(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "inspect":
		err = runInspect(cfg, args, os.Stdout)
	case "scan":
		err = runScan(ctx, cfg, log, args, os.Stdout)
	case "watch":
		err = runWatch(ctx, cfg, log, args, os.Stdout)
	case "repair":
		err = runRepair(args, os.Stdout)
	case "serve":
		err = runServe(ctx, cfg, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("failed")
		os.Exit(1)
	}
}

func isHelp(arg string) bool {
	switch arg {
	case "-h", "-help", "--help", "help":
		return true
	}
	return false
}

func runInspect(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	ignoreExt := fs.Bool("ignore-ext", cfg.Scan.IgnoreExtension, "skip the .jpg/.jpeg extension check")
	threshold := fs.Int("threshold", cfg.Scan.Threshold, "tail window size in bytes, excluding the EOI marker")
	dump := fs.Bool("hexdump", false, "print a hex dump of each file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("inspect: at least one FILE is required")
	}

	opts := []inspector.Option{inspector.WithThreshold(*threshold)}
	if *ignoreExt {
		opts = append(opts, inspector.IgnoreExtension())
	}

	var failed int
	for _, path := range fs.Args() {
		in, err := inspector.Open(path, opts...)
		if err != nil {
			fmt.Fprintf(out, "%s: error: %v\n", path, err)
			failed++
			continue
		}

		res := in.Result()
		fmt.Fprintf(out, "%s: jpeg=%t complete=%t corrupt=%t\n",
			path, res.SignatureValid, res.TerminatorPresent, res.Corrupt)

		if *dump {
			hex, err := in.HexDump()
			if err != nil {
				fmt.Fprintf(out, "%s: hexdump error: %v\n", path, err)
				failed++
				continue
			}
			fmt.Fprintln(out, hex)
		}
	}

	if failed > 0 {
		return fmt.Errorf("inspect: %d of %d files failed", failed, fs.NArg())
	}
	return nil
}

func newScanner(cfg *config.Config, log zerolog.Logger, name string, args []string) (*scanner.Scanner, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	workers := fs.Int("workers", cfg.Scan.Workers, "concurrent inspections (>=1)")
	threshold := fs.Int("threshold", cfg.Scan.Threshold, "tail window size in bytes, excluding the EOI marker")
	ignoreExt := fs.Bool("ignore-ext", cfg.Scan.IgnoreExtension, "skip the .jpg/.jpeg extension check")
	var settle time.Duration
	if name == "watch" {
		fs.DurationVar(&settle, "settle", 500*time.Millisecond, "quiet period before a watched file is inspected")
	}
	var patterns patternList
	fs.Var(&patterns, "pattern", "candidate filename glob, repeatable (default from SCAN_PATTERNS)")
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if fs.NArg() != 1 {
		return nil, "", fmt.Errorf("%s: exactly one DIR is required", name)
	}
	if len(patterns) == 0 {
		patterns = cfg.Scan.Patterns
	}

	s, err := scanner.New(scanner.Options{
		Patterns:        patterns,
		IgnoreExtension: *ignoreExt,
		Threshold:       *threshold,
		Workers:         *workers,
		Settle:          settle,
	}, logger.Named(log, name))
	if err != nil {
		return nil, "", err
	}
	return s, fs.Arg(0), nil
}

func runScan(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, out io.Writer) error {
	s, root, err := newScanner(cfg, log, "scan", args)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Scanning %s....\n", root)
	summary, err := s.Scan(ctx, root)
	if err != nil {
		return err
	}

	for _, r := range summary.Results {
		switch {
		case r.Failed():
			fmt.Fprintf(out, "Failed:  %s (%s)\n", r.Path, r.Error)
		case r.Corrupt:
			fmt.Fprintf(out, "Corrupt: %s\n", r.Path)
		}
	}
	fmt.Fprintf(out, "Time(secs): %.3f\n", summary.Elapsed.Seconds())
	fmt.Fprintf(out, "Scanned: %d, corrupt: %d, failed: %d\n", summary.Scanned, summary.Corrupt, summary.Failed)
	fmt.Fprintf(out, "Number of units with corrupt images: %d\n", len(summary.CorruptUnits))
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, out io.Writer) error {
	s, root, err := newScanner(cfg, log, "watch", args)
	if err != nil {
		return err
	}

	results, err := s.Watch(ctx, root)
	if err != nil {
		return err
	}
	for r := range results {
		switch {
		case r.Failed():
			fmt.Fprintf(out, "Failed:  %s (%s)\n", r.Path, r.Error)
		case r.Corrupt:
			fmt.Fprintf(out, "Corrupt: %s\n", r.Path)
		default:
			fmt.Fprintf(out, "OK:      %s\n", r.Path)
		}
	}
	return nil
}

func runRepair(args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("repair: SRC and DST are required")
	}

	removed, err := inspector.RepairFile(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s -> %s: removed %d trailing zero bytes\n", args[0], args[1], removed)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	fm := frame.NewFrameManager(cfg, client.NewRestyClient(cfg), logger.Named(log, "frame"))
	fm.Start(ctx, cfg.Server.FetchFPS)

	for _, name := range fm.Cameras() {
		log.Info().Str("camera", name).Msgf("camera report ready: http://localhost:%s/cameras/%s", cfg.Server.Port, name)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.New(fm, cfg.Scan.Threshold, logger.Named(log, "http")).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", srv.Addr).Int("fetch_fps", cfg.Server.FetchFPS).Msg("jpegcheck server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
