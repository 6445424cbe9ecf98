package timelinesvc

import (
	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	"github.com/EvModder/438-TSN/internal/delivery"
)

// WireMessage converts a delivered post into the form every transport sends.
func WireMessage(m delivery.Message) *tsnv1.TimelineMessage {
	return &tsnv1.TimelineMessage{
		ID:        m.Post.ID.String(),
		Username:  m.Post.Author,
		Body:      m.Post.Body,
		Timestamp: m.Post.Timestamp,
		Replayed:  m.Replayed,
	}
}
