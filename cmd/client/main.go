package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-sync/internal/config"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/logger"
	"github.com/rocketscienceinc/tictactoe-sync/internal/syncctl"
	"github.com/rocketscienceinc/tictactoe-sync/transport/websocket"
)

const loopBuffer = 64

// terminal serializes output from the loop and the prompt.
type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func (that *terminal) print(text string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, _ = fmt.Fprint(that.out, text)
}

// main - is the entry point of the terminal client.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "client failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	baseDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	conf, err := config.Load(filepath.Join(baseDir, "./config.yml"))
	if err != nil {
		return err
	}

	log := logger.New(conf.LogLevel, os.Stderr)

	gameConf, err := entity.NewGameConfig(conf.Client.BoardSize)
	if err != nil {
		return fmt.Errorf("invalid client board size: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := &terminal{out: os.Stdout}

	var relay syncctl.Relay

	client, err := websocket.Dial(ctx, log, conf.Client.RelayURL, uuid.NewString())
	if err != nil {
		log.Warn("relay is not available, only local play works", "error", err)
	} else {
		relay = client

		defer func() { _ = client.Close() }()

		go func() {
			select {
			case <-client.Done():
				term.print("relay connection lost\n")
			case <-ctx.Done():
			}
		}()
	}

	loop := syncctl.NewLoop(loopBuffer)
	go func() {
		_ = loop.Run(ctx)
	}()

	ctrl := syncctl.New(log, relay,
		syncctl.WithDispatcher(loop),
		syncctl.WithGameConfig(gameConf),
		syncctl.WithJoinTimeout(conf.Client.JoinTimeout),
		syncctl.WithChangeHandler(func(view syncctl.View) { term.print(render(view)) }),
		syncctl.WithNoticeHandler(func(err error) { term.print(notice(err) + "\n") }),
	)

	term.print(helpText + "\n")

	if err = loop.Do(ctx, ctrl.SwitchToLocal); err != nil {
		return fmt.Errorf("failed to start local game: %w", err)
	}

	return readCommands(ctx, log, loop, ctrl, term, os.Stdin)
}

func isHelp(line string) bool {
	line = strings.TrimSpace(line)
	return line == "help" || line == "?"
}

func readCommands(
	ctx context.Context,
	log *slog.Logger,
	loop *syncctl.Loop,
	ctrl *syncctl.Controller,
	term *terminal,
	in io.Reader,
) error {
	lines := make(chan string)
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		var ok bool

		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
			if !ok {
				return nil
			}
		}

		var cmdErr error
		if err := loop.Do(ctx, func() { cmdErr = execute(ctx, ctrl, line) }); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}

			return err
		}

		switch {
		case errors.Is(cmdErr, errQuit):
			_ = loop.Do(ctx, ctrl.Close)
			return nil
		case cmdErr != nil:
			log.Debug("command failed", "line", line, "error", cmdErr)
			term.print(notice(cmdErr) + "\n")
		case isHelp(line):
			term.print(helpText + "\n")
		}
	}
}
