package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/petasbytes/course-rag/internal/app"
	"github.com/petasbytes/course-rag/internal/config"
	"github.com/petasbytes/course-rag/internal/logging"
	"github.com/petasbytes/course-rag/memory"
)

// cliSession is the single conversation the terminal client continues across runs.
const cliSession = "cli"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.InitWriter(os.Stderr, cfg.LogLevel, true)

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		<-sigch
		fmt.Println("\nExiting...")
		cancel()
	}()

	sessions, err := memory.NewFileStore(".agent/sessions")
	if err != nil {
		fmt.Fprintf(os.Stderr, "sessions: %v\n", err)
		os.Exit(1)
	}
	a, err := app.New(ctx, cfg, logger, sessions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()
	a.LoadDocs(ctx, cfg.DocsPath, logger)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Ask about the course materials (Ctrl-C to quit)")

	// stdin reader goroutine -> lines into channel
	inputCh := make(chan string)
	go func() {
		for scanner.Scan() {
			inputCh <- scanner.Text()
		}
		close(inputCh)
	}()

outer:
	for {
		fmt.Print("\u001b[94mYou\u001b[0m: ")
		var (
			user string
			ok   bool
		)
		select {
		case <-ctx.Done():
			break outer
		case user, ok = <-inputCh:
			if !ok {
				break outer
			}
		}
		if strings.TrimSpace(user) == "" {
			continue
		}

		answer, sources, err := a.System.Query(ctx, user, cliSession)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("\u001b[93mAssistant\u001b[0m: %s\n", answer)
		for _, s := range sources {
			if s.Link != "" {
				fmt.Printf("  - %s (%s)\n", s.Text, s.Link)
			} else {
				fmt.Printf("  - %s\n", s.Text)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: stdin read error: %v\n", err)
	}
}
