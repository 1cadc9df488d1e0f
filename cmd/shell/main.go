// Command shell is the batch-scheduling interactive shell: cmd/shell's
// process doubles as every job's ancestor, since internal/procctl re-execs
// this same binary in a hidden wrapper mode to implement born-suspended
// children (see internal/procctl.Spawn). That check must run before anything
// else in main, including flag/config parsing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"batchshell/internal/config"
	"batchshell/internal/logging"
	"batchshell/internal/monitor"
	"batchshell/internal/procctl"
	"batchshell/internal/sched"
	"batchshell/internal/shell"
	"batchshell/internal/shellctx"
	"batchshell/internal/submitter"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == procctl.WrapperArg {
		if err := procctl.RunWrapper(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "batchshell wrapper:", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.New(cfg.Debug)
	defer log.Sync()

	ctx := shellctx.New(cfg.NCPU, cfg.TSliceMS, cfg.TableCapacity, cfg.QueueCapacity)
	sub := submitter.New(ctx)
	scheduler := sched.New(ctx, log)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	schedDone := make(chan struct{})
	go func() {
		scheduler.Run(runCtx)
		close(schedDone)
	}()

	if cfg.MonitorAddr != "" {
		mon := monitor.New(ctx, sub, log)
		go func() {
			if err := mon.ListenAndServe(cfg.MonitorAddr); err != nil {
				log.Warn("monitor server stopped", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	stop := make(chan struct{})
	go func() {
		<-sigCh
		close(stop)
	}()

	repl := shell.New(sub, log, os.Stdin, os.Stdout, os.Stderr)
	repl.Run(stop)

	cancel()
	<-schedDone
}
