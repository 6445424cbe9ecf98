package controllers

import (
	"context"
	"net/http"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	timelinesvc "github.com/EvModder/438-TSN/internal/services/timelines"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// UsersController exposes registration, the follow graph and posting.
type UsersController struct {
	svc    *timelinesvc.Service
	logger logpkg.Logger
}

func NewUsersController(svc *timelinesvc.Service, logger logpkg.Logger) *UsersController {
	return &UsersController{svc: svc, logger: logger}
}

// RegisterRoutes registers user routes with the given mux.
//
// This method sets up HTTP endpoints for:
// - Registration and listing (/v1/users)
// - Follow graph changes (/v1/follow, /v1/unfollow)
// - Posting (/v1/posts)
func (c *UsersController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/users", c.handleUsers)
	mux.HandleFunc("/v1/follow", c.handleFollow(c.svc.Follow))
	mux.HandleFunc("/v1/unfollow", c.handleFollow(c.svc.Unfollow))
	mux.HandleFunc("/v1/posts", c.handlePost)
}

func (c *UsersController) handleUsers(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodGet {
		c.handleList(w, r)
		return
	}
	var req createUserReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	st, err := c.svc.CreateUser(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	code := httpStatusFor(st)
	if code == http.StatusOK {
		code = http.StatusCreated
	}
	writeJSONStatus(w, code, statusResp{Status: st})
}

// handleList returns every known user and the followers of ?username=.
func (c *UsersController) handleList(w http.ResponseWriter, r *http.Request) {
	all, followers, st, err := c.svc.ListUsers(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	writeJSONStatus(w, httpStatusFor(st), listResp{AllUsers: all, Followers: followers, Status: st})
}

type followFunc func(ctx context.Context, follower, followed string) (tsnv1.Status, error)

func (c *UsersController) handleFollow(op followFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !methodAllowed(w, r, http.MethodPost) {
			return
		}
		var req followReq
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		st, err := op(r.Context(), req.Username, req.Target)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update follow graph")
			return
		}
		writeJSONStatus(w, httpStatusFor(st), statusResp{Status: st})
	}
}

// handlePost accepts a post. It answers 202 once the post is durable in the
// author's timeline; fan-out to followers continues afterwards.
func (c *UsersController) handlePost(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	var req postReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := c.svc.Post(r.Context(), req.Username, req.Body)
	if err != nil {
		code := httpStatusForErr(err)
		if code >= http.StatusInternalServerError {
			c.logger.WithContext(r.Context()).Error("post failed", logpkg.Str("user", req.Username), logpkg.Err(err))
		}
		writeError(w, code, err.Error())
		return
	}
	writeJSONStatus(w, http.StatusAccepted, postResp{ID: p.ID.String(), Timestamp: p.Timestamp})
}
