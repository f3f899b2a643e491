// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command stagepipe-demo runs a small word-count pipeline over stdin: a
// single source stage splits lines into words, a transform stage
// lower-cases each word, and a sink stage accumulates counts, printed once
// the input is exhausted.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"code.hybscloud.com/stagepipe"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		jobs          int
		verbose       bool
		queueCapacity int
	)

	cmd := &cobra.Command{
		Use:   "stagepipe-demo",
		Short: "Count word frequencies from stdin using a stagepipe pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWordCount(cmd.Context(), os.Stdin, os.Stdout, jobs, verbose, queueCapacity)
		},
	}

	var flags *pflag.FlagSet = cmd.Flags()
	flags.IntVar(&jobs, "jobs", 0, "workers per transform and sink stage, also passed as the jobs hint; 0 uses one worker per stage")
	flags.BoolVar(&verbose, "verbose", false, "log every stage lifecycle and item-passage event")
	flags.IntVar(&queueCapacity, "queue-capacity", 0, "inter-stage queue capacity; 0 uses the library default")

	return cmd
}

func runWordCount(ctx context.Context, in *os.File, out *os.File, jobs int, verbose bool, queueCapacity int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()

	opts := []stagepipe.Option{stagepipe.WithLogger(logger)}
	if jobs > 0 {
		opts = append(opts, stagepipe.WithNumJobs(jobs))
	}
	if verbose {
		opts = append(opts, stagepipe.WithVerbose(true))
	}
	if queueCapacity > 0 {
		opts = append(opts, stagepipe.WithQueueCapacity(queueCapacity))
	}

	source := stagepipe.Source(func(ctx context.Context, emit func(item any)) error {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			for _, word := range strings.Fields(scanner.Text()) {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				emit(word)
			}
		}
		return scanner.Err()
	}, 1)

	lower := stagepipe.Transform(func(ctx context.Context, item any) (any, error) {
		return strings.ToLower(item.(string)), nil
	}, jobsOrDefault(jobs))

	var mu sync.Mutex
	counts := make(map[string]int)
	sink := stagepipe.Sink(func(ctx context.Context, item any) error {
		mu.Lock()
		counts[item.(string)]++
		mu.Unlock()
		return nil
	}, jobsOrDefault(jobs))

	p, err := stagepipe.New([]stagepipe.Stage{source}, []stagepipe.Stage{lower}, &sink, opts...)
	if err != nil {
		return fmt.Errorf("stagepipe-demo: %w", err)
	}

	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("stagepipe-demo: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for word, n := range counts {
		fmt.Fprintf(out, "%s\t%d\n", word, n)
	}
	return nil
}

func jobsOrDefault(jobs int) int {
	if jobs > 0 {
		return jobs
	}
	return 1
}
