package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-sync/internal/syncctl"
)

var (
	errQuit           = errors.New("quit")
	errUnknownCommand = errors.New("unknown command")
	errUsage          = errors.New("usage")
)

const helpText = `commands:
  local             play X and O on this terminal
  online            play against another terminal through the relay
  join <room>       join a room (online)
  move <index>      place a mark by cell index
  move <x> <y>      place a mark by column and row
  reset             start a new game
  size <n>          board size: 3, or 5 to 10
  score reset       clear the score
  leave             leave the room
  help              show this text
  quit              exit`

// execute runs one command line against the controller. It must run on the controller's loop.
func execute(ctx context.Context, ctrl *syncctl.Controller, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "local":
		ctrl.SwitchToLocal()
	case "online":
		ctrl.SwitchToOnline()
	case "join":
		if len(args) != 1 {
			return fmt.Errorf("%w: join <room>", errUsage)
		}

		return ctrl.RequestJoin(ctx, args[0])
	case "move", "m":
		index, err := cellIndex(ctrl.View(), args)
		if err != nil {
			return err
		}

		return ctrl.SubmitMove(ctx, index)
	case "reset":
		return ctrl.RequestReset(ctx)
	case "size":
		if len(args) != 1 {
			return fmt.Errorf("%w: size <n>", errUsage)
		}

		size, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: size <n>", errUsage)
		}

		return ctrl.SetBoardSize(size)
	case "score":
		if len(args) != 1 || args[0] != "reset" {
			return fmt.Errorf("%w: score reset", errUsage)
		}

		ctrl.ResetScore()
	case "leave":
		ctrl.Close()
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, fields[0])
	}

	return nil
}

// cellIndex accepts either a cell index or a column and a row.
func cellIndex(view syncctl.View, args []string) (int, error) {
	numbers := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return 0, fmt.Errorf("%w: move <index> | move <x> <y>", errUsage)
		}

		numbers = append(numbers, n)
	}

	switch len(numbers) {
	case 1:
		return numbers[0], nil
	case 2:
		index, ok := view.Config.Index(numbers[0], numbers[1])
		if !ok {
			return 0, fmt.Errorf("%w: cell %d,%d is off the board", errUsage, numbers[0], numbers[1])
		}

		return index, nil
	default:
		return 0, fmt.Errorf("%w: move <index> | move <x> <y>", errUsage)
	}
}
