package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/session"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

// Archiver persists the reconciled transcript on room exit. Optional.
type Archiver interface {
	SaveTranscript(ctx context.Context, roomID int64, messages []core.Message) error
}

// Options wires a room session. Session and Room are captured once here;
// the engine never re-reads ambient state afterwards.
type Options struct {
	Session    session.Context
	Room       session.Room
	API        RoomAPI
	Conn       FrameSource
	Strategy   SendStrategy
	EchoWindow time.Duration
	Archive    Archiver
	Logger     *zerolog.Logger
}

// RoomSession is the reconciliation engine for one room: it owns the
// timeline, the edit session and all pending-send state, and mutates them
// from exactly one goroutine. User input, network completions, broadcast
// frames and expiry ticks all funnel into that loop as events; the
// rendering layer sees only the emitted core.Event stream and never blocks
// the loop on I/O.
type RoomSession struct {
	opts     Options
	timeline *core.Timeline
	edit     *core.EditSession
	roster   *core.Roster

	commands chan command
	results  chan result
	events   chan core.Event
	closing  chan struct{}
	done     chan struct{}
	once     sync.Once

	log zerolog.Logger
}

type commandKind int

const (
	cmdSend commandKind = iota
	cmdBeginEdit
	cmdCommitEdit
	cmdCancelEdit
	cmdInvite
)

type command struct {
	kind      commandKind
	body      string
	messageID int64
}

type resultKind int

const (
	resultSend resultKind = iota
	resultEdit
	resultInvite
)

type result struct {
	kind        resultKind
	tentativeID string
	ackID       int64
	messageID   int64
	body        string
	code        string
	err         error
}

// Open loads the history snapshot and roster, then starts the engine.
// The load is all-or-nothing: any failure aborts room entry and no partial
// state survives.
func Open(ctx context.Context, opts Options) (*RoomSession, error) {
	if opts.API == nil || opts.Conn == nil || opts.Strategy == nil {
		return nil, fmt.Errorf("open room %d: incomplete wiring", opts.Room.RoomID)
	}

	messages, err := opts.API.Messages(ctx, opts.Room.RoomID)
	if err != nil {
		return nil, fmt.Errorf("open room %d: %w", opts.Room.RoomID, err)
	}
	members, err := opts.API.Members(ctx, opts.Room.RoomID)
	if err != nil {
		return nil, fmt.Errorf("open room %d: %w", opts.Room.RoomID, err)
	}

	timeline := core.NewTimeline(opts.Session.UserID, opts.Session.Username, opts.EchoWindow)
	timeline.LoadSnapshot(toMessages(messages))

	s := &RoomSession{
		opts:     opts,
		timeline: timeline,
		edit:     core.NewEditSession(),
		roster:   core.NewRoster(toMembers(members)),
		commands: make(chan command, 16),
		results:  make(chan result, 16),
		events:   make(chan core.Event, 128),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
		log: opts.Logger.With().
			Int64("room", opts.Room.RoomID).
			Logger(),
	}

	go s.loop()
	return s, nil
}

// Events returns the stream the rendering layer consumes. It closes after
// Close completes teardown.
func (s *RoomSession) Events() <-chan core.Event {
	return s.events
}

// Send issues an optimistic send. The entry appears on the timeline before
// any network round trip; the compose field can be cleared immediately.
func (s *RoomSession) Send(body string) {
	s.enqueue(command{kind: cmdSend, body: body})
}

// BeginEdit opens an edit draft for an own message, superseding any open
// draft.
func (s *RoomSession) BeginEdit(messageID int64) {
	s.enqueue(command{kind: cmdBeginEdit, messageID: messageID})
}

// CommitEdit submits the draft. On failure the draft survives for retry.
func (s *RoomSession) CommitEdit(draft string) {
	s.enqueue(command{kind: cmdCommitEdit, body: draft})
}

// CancelEdit discards the draft.
func (s *RoomSession) CancelEdit() {
	s.enqueue(command{kind: cmdCancelEdit})
}

// Invite requests an invite code; gated locally and again on the server.
func (s *RoomSession) Invite() {
	s.enqueue(command{kind: cmdInvite})
}

// Roster returns the member list captured at room entry.
func (s *RoomSession) Roster() *core.Roster {
	return s.roster
}

// Close leaves the room: the connection is released first so no late frame
// can be misattributed, then engine state is discarded and the event stream
// closes. In-flight sends are dropped without rollback feedback; the view
// they belonged to is gone. Blocks until teardown completes.
func (s *RoomSession) Close() {
	s.once.Do(func() { close(s.closing) })
	<-s.done
}

func (s *RoomSession) enqueue(c command) {
	select {
	case s.commands <- c:
	case <-s.closing:
	}
}

func (s *RoomSession) loop() {
	defer close(s.done)

	tick := s.opts.EchoWindow / 4
	if tick < 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	s.emit(core.Event{
		Kind:     core.EventSnapshot,
		Messages: s.timeline.Entries(),
		Members:  s.roster.Members(),
	})

	frames := s.opts.Conn.Frames()
	for {
		select {
		case <-s.closing:
			s.teardown()
			return
		case cmd := <-s.commands:
			s.handleCommand(cmd)
		case res := <-s.results:
			s.handleResult(res)
		case frame, ok := <-frames:
			if !ok {
				// Terminal: report once, keep serving REST-backed
				// commands (edits still work).
				frames = nil
				s.emit(core.Event{
					Kind:  core.EventDisconnected,
					Error: &core.CoreError{Code: core.ErrCodeDisconnected, Message: "connection lost"},
				})
				continue
			}
			s.handleFrame(frame)
		case <-ticker.C:
			for _, m := range s.timeline.ExpirePending() {
				s.emit(core.Event{Kind: core.EventRolledBack, Message: m})
				s.emit(core.Event{
					Kind:  core.EventError,
					Error: &core.CoreError{Code: core.ErrCodeSendTimeout, Message: "send not confirmed in time: " + m.Body},
				})
			}
		}
	}
}

func (s *RoomSession) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdSend:
		s.handleSend(cmd.body)
	case cmdBeginEdit:
		target, ok := s.timeline.Get(cmd.messageID)
		if !ok {
			s.fail(core.ErrCodeEditRejected, "message not found")
			return
		}
		if err := s.edit.Begin(target, s.opts.Session.UserID); err != nil {
			s.fail(core.ErrCodeEditRejected, err.Error())
		}
	case cmdCommitEdit:
		s.handleCommitEdit(cmd.body)
	case cmdCancelEdit:
		s.edit.Cancel()
	case cmdInvite:
		s.handleInvite()
	}
}

func (s *RoomSession) handleSend(body string) {
	m, err := s.timeline.AppendLocalOptimistic(body)
	if err != nil {
		s.fail(core.ErrCodeBadRequest, err.Error())
		return
	}
	s.emit(core.Event{Kind: core.EventAppended, Message: m})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.EchoWindow)
		defer cancel()
		ack, err := s.opts.Strategy.Transmit(ctx, s.opts.Room.RoomID, m.Body, m.TentativeID)
		s.deliver(result{kind: resultSend, tentativeID: m.TentativeID, ackID: ack, err: err})
	}()
}

func (s *RoomSession) handleCommitEdit(draft string) {
	s.edit.SetDraft(draft)
	messageID, body, err := s.edit.Commit()
	if err != nil {
		s.fail(core.ErrCodeEditRejected, err.Error())
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.EchoWindow)
		defer cancel()
		err := s.opts.API.UpdateMessage(ctx, s.opts.Room.RoomID, messageID, body)
		s.deliver(result{kind: resultEdit, messageID: messageID, body: body, err: err})
	}()
}

func (s *RoomSession) handleInvite() {
	if !core.CanIssueInvite(s.opts.Room, s.opts.Session.UserID) {
		s.fail(core.ErrCodeBadRequest, "only the creator of a private room can issue invites")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.EchoWindow)
		defer cancel()
		code, err := s.opts.API.CreateInvite(ctx, s.opts.Room.RoomID)
		s.deliver(result{kind: resultInvite, code: code, err: err})
	}()
}

func (s *RoomSession) handleResult(res result) {
	switch res.kind {
	case resultSend:
		if res.err != nil {
			if m, ok := s.timeline.RollbackSend(res.tentativeID); ok {
				s.emit(core.Event{Kind: core.EventRolledBack, Message: m})
			}
			s.fail(core.ErrCodeSendFailed, res.err.Error())
			return
		}
		if res.ackID != 0 {
			if m, ok := s.timeline.ResolveSend(res.tentativeID, res.ackID, time.Time{}); ok {
				s.emit(core.Event{Kind: core.EventResolved, Message: m})
			}
		}
		// ackID 0 without error: fire-and-forget, the echo reconciles.
	case resultEdit:
		if res.err != nil {
			// Session stays in Editing with the draft intact.
			s.fail(core.ErrCodeEditRejected, res.err.Error())
			return
		}
		m, err := s.timeline.ApplyEdit(res.messageID, res.body, time.Now())
		s.edit.Finish()
		if err != nil {
			s.log.Warn().Err(err).Int64("message", res.messageID).Msg("edited message vanished from timeline")
			return
		}
		s.emit(core.Event{Kind: core.EventEdited, Message: m})
	case resultInvite:
		if res.err != nil {
			s.fail(core.ErrCodeBadRequest, res.err.Error())
			return
		}
		s.emit(core.Event{Kind: core.EventInviteIssued, InviteCode: res.code})
	}
}

func (s *RoomSession) handleFrame(frame ws.Frame) {
	if frame.ProtocolErr != nil {
		s.fail(frame.ProtocolErr.Code, frame.ProtocolErr.Msg)
		return
	}
	fr := frame.Message
	if fr == nil {
		return
	}
	if fr.RoomID != s.opts.Room.RoomID {
		s.log.Debug().Int64("frame_room", fr.RoomID).Msg("dropping frame for another room")
		return
	}

	m, outcome := s.timeline.IngestBroadcast(core.Message{
		ID:          fr.MessageID,
		TentativeID: fr.TentativeID,
		AuthorID:    fr.UserID,
		AuthorName:  fr.Username,
		Body:        fr.Content,
		UpdatedAt:   fr.UpdatedAt,
	})
	switch outcome {
	case core.IngestAppended:
		s.emit(core.Event{Kind: core.EventAppended, Message: m})
	case core.IngestResolved:
		s.emit(core.Event{Kind: core.EventResolved, Message: m})
	case core.IngestIgnored:
	}
}

func (s *RoomSession) teardown() {
	// Connection first: the subscription must be gone before state is,
	// so nothing late can land in a newly entered room.
	s.opts.Conn.Close()
	for range s.opts.Conn.Frames() {
		// discard frames raced in before the close
	}

	if s.opts.Archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.opts.Archive.SaveTranscript(ctx, s.opts.Room.RoomID, s.timeline.Entries()); err != nil {
			s.log.Warn().Err(err).Msg("failed to archive transcript")
		}
		cancel()
	}

	close(s.events)
}

func (s *RoomSession) deliver(res result) {
	select {
	case s.results <- res:
	case <-s.closing:
	}
}

func (s *RoomSession) emit(ev core.Event) {
	select {
	case s.events <- ev:
	case <-s.closing:
	}
}

func (s *RoomSession) fail(code, msg string) {
	s.emit(core.Event{Kind: core.EventError, Error: &core.CoreError{Code: code, Message: msg}})
}

func toMessages(dtos []proto.MessageDTO) []core.Message {
	out := make([]core.Message, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, core.Message{
			ID:         d.MessageID,
			AuthorID:   d.UserID,
			AuthorName: d.Username,
			Body:       d.Content,
			UpdatedAt:  d.UpdatedAt,
		})
	}
	return out
}

func toMembers(dtos []proto.MemberDTO) []core.Member {
	out := make([]core.Member, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, core.Member{
			UserID:   d.UserID,
			Username: d.Username,
			JoinedAt: d.JoinedAt,
		})
	}
	return out
}
