package syncctl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/tictactoe"
)

// Controller owns one client's copy of the game. It is not safe for concurrent use:
// call it from one goroutine, or from a Loop passed in WithDispatcher.
type Controller struct {
	logger     *slog.Logger
	relay      Relay
	dispatcher Dispatcher

	joinTimeout time.Duration
	onChange    func(View)
	onNotice    func(error)

	state    State
	config   entity.GameConfig
	board    entity.Board
	xIsNext  bool
	outcome  entity.Outcome
	identity entity.Mark
	scores   ScoreTally
	session  *session
}

// session is one join attempt. Deliveries are tagged with the session that registered them.
type session struct {
	roomID string
	status ConnectionStatus
	full   bool
	sub    Subscription
	timer  *time.Timer
}

type Option func(*Controller)

func WithDispatcher(dispatcher Dispatcher) Option {
	return func(that *Controller) {
		that.dispatcher = dispatcher
	}
}

// WithJoinTimeout gives up on a join that gets no snapshot in time. Zero waits forever.
// The timer fires on its own goroutine, so pair it with WithDispatcher.
func WithJoinTimeout(timeout time.Duration) Option {
	return func(that *Controller) {
		that.joinTimeout = timeout
	}
}

func WithChangeHandler(fn func(View)) Option {
	return func(that *Controller) {
		that.onChange = fn
	}
}

// WithNoticeHandler receives user-facing notices such as a full room.
func WithNoticeHandler(fn func(error)) Option {
	return func(that *Controller) {
		that.onNotice = fn
	}
}

func WithGameConfig(conf entity.GameConfig) Option {
	return func(that *Controller) {
		that.config = conf
	}
}

// New creates an idle controller. Idle plays like local mode until a mode is picked.
// relay may be nil for a local-only client.
//
// Relay deliveries and join timeouts arrive on other goroutines and are passed to the
// dispatcher. The default dispatcher runs them right there, so a controller that is online
// or has a join timeout needs WithDispatcher with a Loop.
func New(logger *slog.Logger, relay Relay, opts ...Option) *Controller {
	controller := &Controller{
		logger:     logger.With("component", "syncctl"),
		relay:      relay,
		dispatcher: Immediate,

		state:   StateIdle,
		config:  entity.DefaultGameConfig(),
		xIsNext: true,
		outcome: entity.NoOutcome(),
	}

	for _, opt := range opts {
		opt(controller)
	}

	controller.board = controller.config.NewBoard()

	return controller
}

func (that *Controller) SwitchToLocal() {
	that.teardown()
	that.resetBoard()
	that.scores = ScoreTally{}
	that.state = StateLocalPlay

	that.changed()
}

func (that *Controller) SwitchToOnline() {
	that.teardown()
	that.resetBoard()
	that.scores = ScoreTally{}
	that.state = StateOnlineUnjoined

	that.changed()
}

// RequestJoin subscribes to the room and asks the relay for a seat.
func (that *Controller) RequestJoin(ctx context.Context, roomID string) error {
	log := that.logger.With("method", "RequestJoin")

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return apperror.ErrEmptyRoomID
	}

	if that.state != StateOnlineUnjoined {
		return fmt.Errorf("%w: %s", apperror.ErrNotJoinable, that.state)
	}

	if that.relay == nil {
		return apperror.ErrRelayUnavailable
	}

	sess := &session{roomID: roomID, status: StatusWaitingForPeer}

	sub, err := that.relay.Subscribe(roomID, func(event Event) {
		that.dispatcher.Dispatch(func() {
			that.handleEvent(sess, event)
		})
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to room %s: %w", roomID, err)
	}

	sess.sub = sub
	that.session = sess
	that.state = StateOnlineWaiting

	if that.joinTimeout > 0 {
		sess.timer = time.AfterFunc(that.joinTimeout, func() {
			that.dispatcher.Dispatch(func() {
				that.expireJoin(sess)
			})
		})
	}

	that.changed()

	if err = that.relay.JoinRoom(ctx, roomID, that.config.BoardSize); err != nil {
		if that.session == sess {
			that.teardown()
			that.state = StateOnlineUnjoined
			that.changed()
		}

		return fmt.Errorf("failed to join room %s: %w", roomID, err)
	}

	log.Info("join requested", "roomID", roomID, "size", that.config.BoardSize)

	return nil
}

// SubmitMove places the current mark locally, or proposes the move to the relay when online.
// A move that is not legal right now is ignored.
func (that *Controller) SubmitMove(ctx context.Context, index int) error {
	if that.outcome.IsTerminal() || !that.config.Contains(index) || !that.board[index].IsEmpty() {
		return nil
	}

	switch that.state {
	case StateIdle, StateLocalPlay:
		that.state = StateLocalPlay
		mark := that.turn()
		that.board[index] = mark
		that.xIsNext = !that.xIsNext
		that.derive(true)
		that.changed()

		return nil
	case StateOnlinePlaying:
		if that.identity != that.turn() {
			return nil
		}

		if err := that.relay.MakeMove(ctx, that.session.roomID, index); err != nil {
			return fmt.Errorf("failed to send move: %w", err)
		}

		return nil
	default:
		return nil
	}
}

// RequestReset starts a new match. Online it only asks the relay and waits for reset-board.
func (that *Controller) RequestReset(ctx context.Context) error {
	switch {
	case that.state == StateIdle || that.state == StateLocalPlay:
		that.state = StateLocalPlay
		that.resetBoard()
		that.changed()

		return nil
	case that.state.inRoom():
		if err := that.relay.ResetGame(ctx, that.session.roomID); err != nil {
			return fmt.Errorf("failed to send reset: %w", err)
		}

		return nil
	default:
		return nil
	}
}

// SetBoardSize changes the geometry for the next game. It is refused once a room is involved.
func (that *Controller) SetBoardSize(size int) error {
	switch that.state {
	case StateIdle, StateLocalPlay, StateOnlineUnjoined:
	default:
		return fmt.Errorf("%w: %s", apperror.ErrBoardSizeLocked, that.state)
	}

	conf, err := entity.NewGameConfig(size)
	if err != nil {
		return fmt.Errorf("failed to set board size: %w", err)
	}

	that.config = conf
	that.resetBoard()
	that.changed()

	return nil
}

func (that *Controller) ResetScore() {
	that.scores = ScoreTally{}
	that.changed()
}

// Close releases the room subscription. The controller stays usable.
func (that *Controller) Close() {
	if that.session == nil {
		return
	}

	that.teardown()
	that.state = StateOnlineUnjoined
	that.changed()
}

func (that *Controller) State() State {
	return that.state
}

func (that *Controller) Config() entity.GameConfig {
	return that.config
}

func (that *Controller) Board() entity.Board {
	return that.board.Clone()
}

func (that *Controller) XIsNext() bool {
	return that.xIsNext
}

func (that *Controller) Outcome() entity.Outcome {
	return that.outcome
}

func (that *Controller) Identity() entity.Mark {
	return that.identity
}

func (that *Controller) Scores() ScoreTally {
	return that.scores
}

func (that *Controller) Session() RoomSession {
	if that.session == nil {
		return RoomSession{Status: StatusUnjoined}
	}

	return RoomSession{
		RoomID: that.session.roomID,
		Status: that.session.status,
		Full:   that.session.full,
	}
}

func (that *Controller) View() View {
	return View{
		State:    that.state,
		Config:   that.config,
		Board:    that.board.Clone(),
		XIsNext:  that.xIsNext,
		Outcome:  that.outcome,
		Identity: that.identity,
		Session:  that.Session(),
		Scores:   that.scores,
	}
}

func (that *Controller) handleEvent(sess *session, event Event) {
	log := that.logger.With("method", "handleEvent", "event", event.eventName(), "roomID", sess.roomID)

	if that.session != sess {
		log.Debug("dropped event of a closed session")
		return
	}

	switch ev := event.(type) {
	case RoomSnapshot:
		that.applySnapshot(log, ev)
	case RoomFull:
		that.teardown()
		that.state = StateOnlineUnjoined
		that.changed()
		that.notice(fmt.Errorf("%w: %s", apperror.ErrRoomFull, sess.roomID))
	case MoveMade:
		that.applyMove(log, ev)
	case BoardReset:
		if !that.state.inRoom() {
			log.Warn("reset before the room snapshot")
			return
		}

		that.resetBoard()
		that.state = StateOnlinePlaying
		that.changed()
	default:
		log.Warn("unknown event")
	}
}

func (that *Controller) applySnapshot(log *slog.Logger, snapshot RoomSnapshot) {
	conf := that.config
	if snapshot.Size != 0 && snapshot.Size != conf.BoardSize {
		adopted, err := entity.NewGameConfig(snapshot.Size)
		if err != nil {
			log.Warn("dropped snapshot", "error", err)
			return
		}

		conf = adopted
	}

	if err := tictactoe.ValidateBoard(snapshot.Board, conf); err != nil {
		log.Warn("dropped snapshot", "error", err)
		return
	}

	identity := markOf(snapshot.Players, that.relay.ClientID())
	if identity.IsEmpty() {
		log.Warn("dropped snapshot without this client", "players", snapshot.Players)
		return
	}

	if that.session.timer != nil {
		that.session.timer.Stop()
	}

	that.config = conf
	that.identity = identity
	that.board = snapshot.Board.Clone()
	that.xIsNext = snapshot.XIsNext
	that.session.full = seated(snapshot.Players) == entity.RoomCapacity

	// a snapshot with a free seat means the opponent left
	if !that.session.full {
		that.session.status = StatusWaitingForPeer
		that.state = StateOnlineWaiting
		that.derive(false)
		that.changed()

		log.Info("waiting for opponent", "mark", identity)

		return
	}

	that.session.status = StatusActive
	that.derive(false)
	that.changed()

	log.Info("joined room", "mark", identity)
}

func (that *Controller) applyMove(log *slog.Logger, move MoveMade) {
	if !that.state.inRoom() {
		log.Warn("move before the room snapshot")
		return
	}

	if err := tictactoe.ValidateBoard(move.Board, that.config); err != nil {
		log.Warn("dropped move", "error", err)
		return
	}

	that.board = move.Board.Clone()
	that.xIsNext = move.XIsNext
	that.derive(true)
	that.changed()
}

func (that *Controller) expireJoin(sess *session) {
	if that.session != sess || that.state != StateOnlineWaiting {
		return
	}

	that.logger.Info("join timed out", "roomID", sess.roomID, "timeout", that.joinTimeout)

	that.teardown()
	that.state = StateOnlineUnjoined
	that.changed()
	that.notice(fmt.Errorf("%w: %s", apperror.ErrJoinTimeout, sess.roomID))
}

// derive recomputes the outcome from the board. With score set, a win that just
// completed is counted once.
func (that *Controller) derive(score bool) {
	previous := that.outcome
	that.outcome = tictactoe.EvaluateConfig(that.board, that.config)

	if score && !previous.IsTerminal() && that.outcome.HasWinner() {
		that.scores.Add(that.outcome.Winner)
	}

	if that.state.IsOnline() && that.session != nil && that.session.status == StatusActive {
		if that.outcome.IsTerminal() {
			that.state = StateOnlineTerminal
		} else {
			that.state = StateOnlinePlaying
		}
	}
}

func (that *Controller) resetBoard() {
	that.board = that.config.NewBoard()
	that.xIsNext = true
	that.outcome = entity.NoOutcome()
}

func (that *Controller) teardown() {
	if that.session == nil {
		return
	}

	if that.session.timer != nil {
		that.session.timer.Stop()
	}

	if that.session.sub != nil {
		that.session.sub.Close()
	}

	that.session = nil
	that.identity = entity.MarkEmpty
}

func (that *Controller) turn() entity.Mark {
	if that.xIsNext {
		return entity.MarkX
	}

	return entity.MarkO
}

func (that *Controller) changed() {
	if that.onChange != nil {
		that.onChange(that.View())
	}
}

func (that *Controller) notice(err error) {
	if that.onNotice != nil {
		that.onNotice(err)
	}
}

func seated(players []string) int {
	count := 0
	for _, id := range players {
		if id != "" {
			count++
		}
	}

	return count
}

func markOf(players []string, clientID string) entity.Mark {
	if clientID == "" {
		return entity.MarkEmpty
	}

	for i, id := range players {
		if id != clientID {
			continue
		}

		if i == 0 {
			return entity.MarkX
		}

		return entity.MarkO
	}

	return entity.MarkEmpty
}
