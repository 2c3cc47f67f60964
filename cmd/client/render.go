package main

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/syncctl"
)

// render draws the board with row and column numbers, then the status lines.
func render(view syncctl.View) string {
	var sb strings.Builder

	size := view.Config.BoardSize

	sb.WriteString("   ")
	for x := 0; x < size; x++ {
		fmt.Fprintf(&sb, " %d", x)
	}

	sb.WriteByte('\n')

	for y := 0; y < size; y++ {
		fmt.Fprintf(&sb, "%2d ", y)

		for x := 0; x < size; x++ {
			sb.WriteByte(' ')
			sb.WriteString(cell(view.Board[y*size+x]))
		}

		sb.WriteByte('\n')
	}

	sb.WriteString(header(view))
	sb.WriteByte('\n')

	if status := view.Status(); status != "" {
		sb.WriteString(status)
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "Score X %d : %d O\n", view.Scores.X, view.Scores.O)

	return sb.String()
}

func header(view syncctl.View) string {
	conf := fmt.Sprintf("%dx%d, %d in a row", view.Config.BoardSize, view.Config.BoardSize, view.Config.RunLength)

	switch view.State {
	case syncctl.StateIdle:
		return "Pick a mode: local or online (" + conf + ")"
	case syncctl.StateLocalPlay:
		return "Local game, " + conf
	case syncctl.StateOnlineUnjoined:
		return "Online, join a room (" + conf + ")"
	default:
		return fmt.Sprintf("Room %s, you play %s, %s", view.Session.RoomID, markOrDash(view.Identity), conf)
	}
}

func cell(mark entity.Mark) string {
	if mark.IsEmpty() {
		return "."
	}

	return string(mark)
}

func markOrDash(mark entity.Mark) string {
	if mark.IsEmpty() {
		return "-"
	}

	return string(mark)
}
