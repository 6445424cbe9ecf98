package controllers

import (
	"errors"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	"github.com/EvModder/438-TSN/internal/delivery"
	timelinesvc "github.com/EvModder/438-TSN/internal/services/timelines"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var errWrongUser = errors.New("post as another user")

// wsError is the JSON frame sent before closing a websocket session on error.
type wsError struct {
	Error string `json:"error"`
}

// handleWS upgrades to a websocket carrying the same messages as the gRPC
// Timeline stream: the server sends posts, the client sends
// {"username","body"} frames to post. The username comes from ?username=.
func (c *TimelineController) handleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user := q.Get("username")
	// Connect before upgrading so failures are plain HTTP errors.
	ch, err := c.svc.Connect(r.Context(), user, timelinesvc.ConnectOptions{Filter: q.Get("filter")})
	if err != nil {
		writeError(w, httpStatusForErr(err), err.Error())
		return
	}
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.svc.Disconnect(user, ch)
		return
	}
	l := c.logger.WithContext(r.Context()).With(logpkg.Str("user", user), logpkg.Str("session", ch.ID()))
	l.Debug("websocket session started")

	var wg sync.WaitGroup
	writeErr := make(chan error, 1)
	readErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		writeErr <- c.wsWriteLoop(conn, ch)
	}()
	go func() { readErr <- c.wsReadLoop(r, conn, user) }()

	var end error
	select {
	case end = <-readErr:
	case end = <-writeErr:
	}
	c.svc.Disconnect(user, ch)
	wg.Wait()

	code, text := wsCloseCode(end), ""
	if end != nil {
		text = end.Error()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		_ = conn.WriteJSON(wsError{Error: text})
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, closeReason(text)), time.Now().Add(wsWriteWait))
	_ = conn.Close()
	l.Debug("websocket session ended", logpkg.Err(end))
}

// closeReason trims text to fit a close frame: control payloads are limited
// to 125 bytes, two of which are the code. The cut never splits a rune.
func closeReason(text string) string {
	const limit = 123
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func (c *TimelineController) wsReadLoop(r *http.Request, conn *websocket.Conn, user string) error {
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		var msg tsnv1.TimelineMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return nil
			}
			return err
		}
		if msg.Username != "" && msg.Username != user {
			return errWrongUser
		}
		if _, err := c.svc.Post(r.Context(), user, msg.Body); err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	}
}

func (c *TimelineController) wsWriteLoop(conn *websocket.Conn, ch *delivery.Channel) error {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case m := <-ch.C():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(timelinesvc.WireMessage(m)); err != nil {
				return err
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return err
			}
		case <-ch.Done():
			if err := ch.Err(); !errors.Is(err, delivery.ErrClosed) {
				return err
			}
			return nil
		}
	}
}

func wsCloseCode(err error) int {
	switch {
	case err == nil:
		return websocket.CloseNormalClosure
	case errors.Is(err, errWrongUser):
		return websocket.ClosePolicyViolation
	case errors.Is(err, delivery.ErrSuperseded), errors.Is(err, delivery.ErrSlowConsumer):
		return websocket.CloseTryAgainLater
	case errors.Is(err, delivery.ErrShutdown), errors.Is(err, timelinesvc.ErrClosed):
		return websocket.CloseGoingAway
	case httpStatusForErr(err) < http.StatusInternalServerError:
		return websocket.ClosePolicyViolation
	default:
		return websocket.CloseInternalServerErr
	}
}
