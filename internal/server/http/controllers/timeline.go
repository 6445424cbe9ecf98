package controllers

import (
	"net/http"

	"github.com/gorilla/websocket"

	timelinesvc "github.com/EvModder/438-TSN/internal/services/timelines"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// TimelineController streams a user's timeline over SSE (read-only) and
// websocket (read and post).
type TimelineController struct {
	svc      *timelinesvc.Service
	logger   logpkg.Logger
	upgrader websocket.Upgrader
}

func NewTimelineController(svc *timelinesvc.Service, logger logpkg.Logger) *TimelineController {
	return &TimelineController{
		svc:    svc,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// CORS is open on every other route too.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers timeline routes with the given mux.
func (c *TimelineController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/timeline", c.handleSSE)
	mux.HandleFunc("/v1/timeline/ws", c.handleWS)
}

// handleSSE replays the recent timeline of ?username= and then streams live
// posts until the client goes away or the session is closed. ?filter= takes
// a CEL expression.
func (c *TimelineController) handleSSE(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	user := q.Get("username")
	ch, err := c.svc.Connect(r.Context(), user, timelinesvc.ConnectOptions{Filter: q.Get("filter")})
	if err != nil {
		writeError(w, httpStatusForErr(err), err.Error())
		return
	}
	defer c.svc.Disconnect(user, ch)
	l := c.logger.WithContext(r.Context()).With(logpkg.Str("user", user), logpkg.Str("session", ch.ID()))
	l.Debug("sse session started")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	sink := sseWriter{w: w}
	_ = sink.Flush()
	for {
		select {
		case m := <-ch.C():
			if err := sink.Send(timelinesvc.WireMessage(m)); err != nil {
				return
			}
			// Coalesce whatever else is already queued into one flush.
			for drained := false; !drained; {
				select {
				case m := <-ch.C():
					if err := sink.Send(timelinesvc.WireMessage(m)); err != nil {
						return
					}
				default:
					drained = true
				}
			}
			_ = sink.Flush()
		case <-ch.Done():
			_ = sink.Close(ch.Err().Error())
			_ = sink.Flush()
			return
		case <-r.Context().Done():
			return
		}
	}
}
