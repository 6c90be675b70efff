package app

import (
	"fmt"
	"strconv"
	"strings"
)

type commandKind int

const (
	inputSend commandKind = iota
	inputEdit
	inputMembers
	inputInvite
	inputQuit
)

type input struct {
	kind      commandKind
	body      string
	messageID int64
}

// parseInput turns one terminal line into an action. Lines starting with a
// slash are commands; everything else is a message body.
func parseInput(line string) (input, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return input{kind: inputSend, body: trimmed}, nil
	}

	fields := strings.SplitN(trimmed, " ", 3)
	switch fields[0] {
	case "/edit":
		if len(fields) < 3 {
			return input{}, fmt.Errorf("usage: /edit <message-id> <new text>")
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || id <= 0 {
			return input{}, fmt.Errorf("invalid message id %q", fields[1])
		}
		return input{kind: inputEdit, messageID: id, body: fields[2]}, nil
	case "/members":
		return input{kind: inputMembers}, nil
	case "/invite":
		return input{kind: inputInvite}, nil
	case "/quit", "/exit":
		return input{kind: inputQuit}, nil
	default:
		return input{}, fmt.Errorf("unknown command %s", fields[0])
	}
}
