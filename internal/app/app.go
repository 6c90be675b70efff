// Package app is the terminal front-end: it renders the room session's
// event stream and turns typed lines into engine commands. It holds no
// chat state of its own; everything it prints comes from an event.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/client"
	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/session"
)

// App couples one room session to a line-oriented terminal.
type App struct {
	room session.Room
	self session.Context
	sess *client.RoomSession

	in  io.Reader
	out io.Writer
	log *zerolog.Logger
}

func New(room session.Room, self session.Context, sess *client.RoomSession, in io.Reader, out io.Writer, logger *zerolog.Logger) *App {
	return &App{
		room: room,
		self: self,
		sess: sess,
		in:   in,
		out:  out,
		log:  logger,
	}
}

// Run renders events and dispatches input until the user quits, the input
// stream ends, or ctx is cancelled. It closes the session on the way out.
func (a *App) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	a.printf("joined %q as %s (type /quit to leave)", a.room.Title, a.self.Username)

	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return ctx.Err()
		case ev, ok := <-a.sess.Events():
			if !ok {
				return nil
			}
			a.render(ev)
		case line, ok := <-lines:
			if !ok {
				a.shutdown()
				return nil
			}
			if quit := a.dispatch(line); quit {
				a.shutdown()
				return nil
			}
		}
	}
}

// shutdown closes the session and drains the tail of the event stream so
// teardown events are not silently lost.
func (a *App) shutdown() {
	a.sess.Close()
	for ev := range a.sess.Events() {
		a.render(ev)
	}
}

func (a *App) dispatch(line string) (quit bool) {
	in, err := parseInput(line)
	if err != nil {
		a.printf("! %v", err)
		return false
	}

	switch in.kind {
	case inputSend:
		if in.body == "" {
			return false
		}
		a.sess.Send(in.body)
	case inputEdit:
		// Begin and commit ride the same command queue, so they are
		// processed in order as a single edit.
		a.sess.BeginEdit(in.messageID)
		a.sess.CommitEdit(in.body)
	case inputMembers:
		a.printMembers(a.sess.Roster())
	case inputInvite:
		if !core.CanIssueInvite(a.room, a.self.UserID) {
			a.printf("! only the creator of a private room can issue invites")
			return false
		}
		a.sess.Invite()
	case inputQuit:
		return true
	}
	return false
}

func (a *App) render(ev core.Event) {
	switch ev.Kind {
	case core.EventSnapshot:
		for _, m := range ev.Messages {
			a.printMessage(m, "")
		}
		a.printf("-- %d message(s), %d member(s) --", len(ev.Messages), len(ev.Members))
	case core.EventAppended:
		a.printMessage(ev.Message, "")
	case core.EventResolved:
		a.printMessage(ev.Message, "delivered")
	case core.EventRolledBack:
		a.printf("x undelivered: %s", ev.Message.Body)
	case core.EventEdited:
		a.printMessage(ev.Message, "edited")
	case core.EventInviteIssued:
		a.printf("invite code: %s", ev.InviteCode)
	case core.EventDisconnected:
		a.printf("! connection lost; live updates stopped, edits still work")
	case core.EventError:
		a.printf("! %s: %s", ev.Error.Code, ev.Error.Message)
	}
}

func (a *App) printMessage(m core.Message, note string) {
	id := "....."
	if m.Resolved() {
		id = fmt.Sprintf("#%d", m.ID)
	}
	if note != "" {
		note = " (" + note + ")"
	}
	a.printf("%6s %s: %s%s", id, m.AuthorName, m.Body, note)
}

func (a *App) printMembers(r *core.Roster) {
	owner, hasOwner := r.DisplayOwner()
	for _, m := range r.Members() {
		marker := ""
		if hasOwner && m.UserID == owner.UserID {
			marker = " (owner)"
		}
		a.printf("  %s%s", m.Username, marker)
	}
}

func (a *App) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(a.out, format+"\n", args...); err != nil {
		a.log.Warn().Err(err).Msg("terminal write failed")
	}
}
