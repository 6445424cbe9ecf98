package controllers

import (
	"time"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
)

// Common request/response types for HTTP controllers

// createUserReq represents a request to register a user.
type createUserReq struct {
	Username string `json:"username"`
}

// followReq represents a follow or unfollow of target by user.
type followReq struct {
	Username string `json:"username"`
	Target   string `json:"target"`
}

// postReq represents a new post by username.
type postReq struct {
	Username string `json:"username"`
	Body     string `json:"body"`
}

// statusResp carries a facade status.
type statusResp struct {
	Status tsnv1.Status `json:"status"`
}

// listResp mirrors ListReply.
type listResp struct {
	AllUsers  []string     `json:"allUsers"`
	Followers []string     `json:"followers"`
	Status    tsnv1.Status `json:"status"`
}

// postResp identifies an accepted post.
type postResp struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}
