package tsnv1

import "time"

type CreateUserRequest struct {
	Username string `json:"username"`
}

func (x *CreateUserRequest) GetUsername() string {
	if x != nil {
		return x.Username
	}
	return ""
}

type CreateUserReply struct {
	Status Status `json:"status"`
}

func (x *CreateUserReply) GetStatus() Status {
	if x != nil {
		return x.Status
	}
	return Status_FAILURE_UNKNOWN
}

// PersonRequest carries a follow or unfollow of TargetUser by RequestUser.
type PersonRequest struct {
	RequestUser string `json:"requestUser"`
	TargetUser  string `json:"targetUser"`
}

func (x *PersonRequest) GetRequestUser() string {
	if x != nil {
		return x.RequestUser
	}
	return ""
}

func (x *PersonRequest) GetTargetUser() string {
	if x != nil {
		return x.TargetUser
	}
	return ""
}

type PersonReply struct {
	Status Status `json:"status"`
}

func (x *PersonReply) GetStatus() Status {
	if x != nil {
		return x.Status
	}
	return Status_FAILURE_UNKNOWN
}

type ListRequest struct {
	Username string `json:"username"`
}

func (x *ListRequest) GetUsername() string {
	if x != nil {
		return x.Username
	}
	return ""
}

type ListReply struct {
	AllUsers  []string `json:"allUsers"`
	Followers []string `json:"followers"`
	Status    Status   `json:"status"`
}

func (x *ListReply) GetAllUsers() []string {
	if x != nil {
		return x.AllUsers
	}
	return nil
}

func (x *ListReply) GetFollowers() []string {
	if x != nil {
		return x.Followers
	}
	return nil
}

func (x *ListReply) GetStatus() Status {
	if x != nil {
		return x.Status
	}
	return Status_FAILURE_UNKNOWN
}

// TimelineMessage flows both ways on the Timeline stream. The first client
// message is the handshake (Username, optional Filter); later client messages
// are posts (Body). Server messages carry a delivered post.
type TimelineMessage struct {
	ID        string    `json:"id,omitempty"`
	Username  string    `json:"username"`
	Body      string    `json:"body,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Filter    string    `json:"filter,omitempty"`
	// Replayed marks server messages that come from history.
	Replayed bool `json:"replayed,omitempty"`
}

func (x *TimelineMessage) GetUsername() string {
	if x != nil {
		return x.Username
	}
	return ""
}

func (x *TimelineMessage) GetBody() string {
	if x != nil {
		return x.Body
	}
	return ""
}

func (x *TimelineMessage) GetFilter() string {
	if x != nil {
		return x.Filter
	}
	return ""
}
