package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"fileguard/internal/action"
	"fileguard/internal/config"
	"fileguard/internal/dispatch"
	"fileguard/internal/logging"
	"fileguard/internal/notify"
	"fileguard/internal/rule"
	"fileguard/internal/watcher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		printUsage(stdout)
		return 0
	}
	if err != nil {
		return 1
	}

	level := logging.LevelWarning
	if opts.verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewLoggerWithOutput(level, stderr)

	configPath := config.Resolve(opts.args)
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "fileguard: %v\n", err)
		if errors.Is(err, config.ErrMissing) {
			if scaffoldErr := config.Scaffold(configPath); scaffoldErr != nil {
				logger.Debug("could not scaffold configuration", map[string]string{
					"error": scaffoldErr.Error(),
				})
			} else {
				fmt.Fprintf(stderr, "fileguard: wrote a starter configuration to %s, edit it and run again\n", configPath)
			}
		}
		return 1
	}
	logger.Debug("configuration loaded", map[string]string{
		"path":   configPath,
		"inode":  cfg.Inode,
		"event":  cfg.Event,
		"action": cfg.Action,
	})

	watchRule, err := rule.New(cfg.Inode, cfg.Event, cfg.Action)
	if err != nil {
		fmt.Fprintf(stderr, "fileguard: %v\n", err)
		return 1
	}

	handle, err := watcher.Open(watchRule.InodePath)
	if err != nil {
		fmt.Fprintf(stderr, "fileguard: %v\n", err)
		return 1
	}

	var sink notify.Sink
	if opts.notifier {
		sink = notify.Desktop{}
	}

	dispatcher, err := dispatch.New(dispatch.Options{
		Handle: handle,
		Rule:   watchRule,
		Action: action.New(watchRule, logger),
		Logger: logger,
		Sink:   sink,
	})
	if err != nil {
		_ = handle.Close()
		fmt.Fprintf(stderr, "fileguard: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coordinator := newShutdownCoordinator(logger)
	coordinator.Add("watch handle", func(context.Context) error {
		return dispatcher.Release()
	})

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	stopSignalWatch := watchShutdownSignals(logger, cancel, coordinator, signalCh)
	defer stopSignalWatch()

	fmt.Fprintln(stdout, "Initializing fileguard!")
	logger.Info("watching inode", map[string]string{
		"path":   watchRule.InodePath,
		"event":  watchRule.EventName,
		"action": watchRule.ActionKind.String(),
	})

	runErr := dispatcher.Run(ctx)
	if cleanupErr := coordinator.Run(context.Background()); cleanupErr != nil {
		logger.Warn("cleanup failed", map[string]string{
			"error": cleanupErr.Error(),
		})
	}
	if runErr != nil {
		fmt.Fprintf(stderr, "fileguard: %v\n", runErr)
		return 1
	}
	return 0
}
