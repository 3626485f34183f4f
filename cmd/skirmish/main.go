// Skirmish is a persistent turn-based combat engine driven by Lua catalogs.
// Usage: skirmish [--version] [--plain] [--script <file>] [--trace] [--actor <id>]
//
//	[--seed <n>] [--state <file>] [--dsn <url>] [--otlp <endpoint>] [--log <file>] <catalog_directory>
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/skirmish/cli"
	"github.com/nathoo/skirmish/engine"
	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/loader"
	"github.com/nathoo/skirmish/logger"
	"github.com/nathoo/skirmish/session"
	"github.com/nathoo/skirmish/store/memory"
	"github.com/nathoo/skirmish/store/postgres"
	"github.com/nathoo/skirmish/telemetry"
	"github.com/nathoo/skirmish/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: skirmish [--version] [--plain] [--script <file>] [--trace] [--actor <id>] " +
	"[--seed <n>] [--state <file>] [--dsn <url>] [--otlp <endpoint>] [--log <file>] <catalog_directory>"

// sweepInterval is how often stale battles are resolved in the background.
const sweepInterval = time.Minute

type options struct {
	plain      bool
	trace      bool
	catalogDir string
	scriptFile string
	actorID    string
	seed       int64
	statePath  string
	dsn        string
	otlp       string
	logPath    string
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opts == nil {
		fmt.Printf("skirmish %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// parseArgs reads the command line. A nil result means --version.
func parseArgs(args []string) (*options, error) {
	opts := &options{
		seed: time.Now().UnixNano(),
		dsn:  os.Getenv("SKIRMISH_DSN"),
		otlp: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	value := func(i *int, name string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", name)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		var err error
		switch args[i] {
		case "--version":
			return nil, nil
		case "--plain":
			opts.plain = true
		case "--trace":
			opts.trace = true
		case "--script":
			opts.scriptFile, err = value(&i, "--script")
		case "--actor":
			opts.actorID, err = value(&i, "--actor")
		case "--state":
			opts.statePath, err = value(&i, "--state")
		case "--dsn":
			opts.dsn, err = value(&i, "--dsn")
		case "--otlp":
			opts.otlp, err = value(&i, "--otlp")
		case "--log":
			opts.logPath, err = value(&i, "--log")
		case "--seed":
			var s string
			if s, err = value(&i, "--seed"); err == nil {
				if opts.seed, err = strconv.ParseInt(s, 10, 64); err != nil {
					err = fmt.Errorf("--seed: %q is not an integer", s)
				}
			}
		default:
			if opts.catalogDir == "" {
				opts.catalogDir = args[i]
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if opts.catalogDir == "" {
		return nil, errors.New(usage)
	}
	if opts.statePath != "" && opts.dsn != "" {
		return nil, errors.New("--state and --dsn cannot be combined: the database already persists state")
	}
	return opts, nil
}

func run(ctx context.Context, opts *options) error {
	if err := logger.Init(opts.logPath); err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	log := logger.Log.WithField("component", "main")

	shutdown, err := telemetry.Setup(ctx, opts.otlp, version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.WithError(err).Warn("flushing traces")
		}
	}()

	// Load and compile the Lua catalog.
	cat, err := loader.Load(opts.catalogDir)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	store, closeStore, err := openStore(ctx, opts.dsn, cat)
	if err != nil {
		return err
	}
	defer closeStore()

	eng := engine.New(store, cat,
		engine.WithDice(engine.NewRNG(opts.seed)),
		engine.WithLogger(logger.Log),
	)

	actorID := opts.actorID
	if actorID == "" {
		actorID = cat.Game.Start
	}
	if actorID == "" {
		return errors.New("no actor to play: pass --actor or set Game.start")
	}
	if _, err := store.Actor(ctx, actorID); err != nil {
		return fmt.Errorf("actor %q: %w", actorID, err)
	}
	sess := session.New(eng, store, actorID)

	if opts.statePath != "" {
		if err := sess.LoadFile(opts.statePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading state: %w", err)
		}
		defer func() {
			if err := sess.SaveFile(opts.statePath); err != nil {
				log.WithError(err).Error("saving state")
			}
		}()
	}

	go sweep(ctx, eng)

	log.WithFields(logrus.Fields{"catalog": opts.catalogDir, "actor": actorID, "seed": opts.seed}).Info("starting")

	// Script mode: open file, force plain, echo commands.
	if opts.scriptFile != "" {
		f, err := os.Open(opts.scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		printBanner(cat)
		c := cli.New(sess)
		c.In = f
		c.EchoInput = true
		c.Trace = opts.trace
		c.Run(ctx)
		return nil
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if opts.plain || !isTerminal() {
		printBanner(cat)
		c := cli.New(sess)
		c.Trace = opts.trace
		c.Run(ctx)
		return nil
	}

	return tui.Run(ctx, sess)
}

// openStore connects to PostgreSQL when a DSN is given and falls back to
// the in-memory store otherwise. Either way the catalog's starting actors
// are seeded.
func openStore(ctx context.Context, dsn string, cat *catalog.Catalog) (engine.Store, func(), error) {
	actors := catalog.StartingActors(cat)
	if dsn == "" {
		return memory.NewStore(actors...), func() {}, nil
	}
	pg, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pg.SeedActors(ctx, actors...); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, func() { pg.Close() }, nil
}

// sweep resolves stale battles until ctx ends.
func sweep(ctx context.Context, eng *engine.Engine) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := eng.Sweep(ctx); err != nil {
				logger.Log.WithError(err).Warn("sweep failed")
			} else if n > 0 {
				logger.Log.WithField("resolved", n).Info("stale battles resolved")
			}
		}
	}
}

func printBanner(cat *catalog.Catalog) {
	g := cat.Game
	switch {
	case g.Author != "":
		fmt.Printf("%s v%s by %s\n\n", g.Title, g.Version, g.Author)
	case g.Version != "":
		fmt.Printf("%s v%s\n\n", g.Title, g.Version)
	default:
		fmt.Printf("%s\n\n", g.Title)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
