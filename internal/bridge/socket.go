package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/prompt"
	"github.com/kingrea/guild-forge/internal/review"
)

const (
	socketWriteWait = 10 * time.Second
	answerQueue     = 8
)

// ErrDisconnected is returned by a socket prompt when the client goes away
// before answering.
var ErrDisconnected = errors.New("bridge: client disconnected")

// socket implements prompt.Prompter over one websocket connection. Prompts are
// issued by a single session goroutine; a reader goroutine feeds answers.
type socket struct {
	conn    *websocket.Conn
	catalog *catalog.Catalog
	logger  *zap.Logger

	writeMu sync.Mutex
	seq     int64

	answers chan Answer
	// gone is closed when the reader stops.
	gone chan struct{}
	// stop tells the reader to give up on a pending hand-off.
	stop     chan struct{}
	stopOnce sync.Once
}

func newSocket(conn *websocket.Conn, cat *catalog.Catalog, logger *zap.Logger) *socket {
	s := &socket{
		conn:    conn,
		catalog: cat,
		logger:  logger,
		answers: make(chan Answer, answerQueue),
		gone:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
	go s.read()
	return s
}

func (s *socket) read() {
	defer close(s.gone)
	for {
		var in Answer
		if err := s.conn.ReadJSON(&in); err != nil {
			return
		}
		if strings.ToLower(strings.TrimSpace(in.Type)) != FrameAnswer {
			s.logger.Debug("ignoring client frame", zap.String("type", in.Type))
			continue
		}
		select {
		case s.answers <- in:
		case <-s.stop:
			return
		}
	}
}

// close tears the connection down and waits for the reader to exit.
func (s *socket) close() {
	s.stopOnce.Do(func() { close(s.stop) })
	_ = s.conn.Close()
	<-s.gone
}

func (s *socket) write(f Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(socketWriteWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(f)
}

// ask sends f and waits for the answer carrying its ID. Answers to earlier
// prompts are discarded.
func (s *socket) ask(ctx context.Context, f Frame) (Answer, error) {
	s.seq++
	f.ID = s.seq
	if err := s.write(f); err != nil {
		return Answer{}, err
	}
	for {
		select {
		case <-ctx.Done():
			return Answer{}, ctx.Err()
		case <-s.gone:
			return Answer{}, ErrDisconnected
		case in := <-s.answers:
			if in.ID != f.ID {
				s.logger.Debug("discarding stale answer", zap.Int64("answer", in.ID), zap.Int64("prompt", f.ID))
				continue
			}
			return in, nil
		}
	}
}

func (s *socket) Text(ctx context.Context, label, placeholder string) (string, error) {
	in, err := s.ask(ctx, Frame{Type: FrameText, Label: label, Placeholder: placeholder})
	if err != nil {
		return "", err
	}
	return in.Text, nil
}

func (s *socket) Select(ctx context.Context, req prompt.SelectRequest) ([]string, error) {
	max := req.MaxSelections
	if max < 1 {
		max = 1
	}
	opts := make([]FrameOption, 0, len(req.Options))
	for _, o := range req.Options {
		opts = append(opts, FrameOption(o))
	}
	in, err := s.ask(ctx, Frame{
		Type:        FrameSelect,
		Label:       req.Label,
		Placeholder: req.Placeholder,
		Options:     opts,
		Max:         max,
	})
	if err != nil {
		return nil, err
	}
	return in.Values, nil
}

func (s *socket) Confirm(ctx context.Context, question string) (bool, error) {
	in, err := s.ask(ctx, Frame{Type: FrameConfirm, Label: question})
	if err != nil {
		return false, err
	}
	return in.Yes, nil
}

func (s *socket) Preview(_ context.Context, item order.Item) {
	s.push(Frame{Type: FramePreview, Body: review.RenderItem(s.catalog, item)})
}

func (s *socket) Notify(_ context.Context, message string) {
	s.push(Frame{Type: FrameNotice, Body: message})
}

// goodbye sends a normal close frame so the client can tell a finished
// session from a dropped connection.
func (s *socket) goodbye() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
}

func (s *socket) push(f Frame) {
	if err := s.write(f); err != nil {
		s.logger.Debug("socket write failed", zap.String("frame", f.Type), zap.Error(err))
	}
}
