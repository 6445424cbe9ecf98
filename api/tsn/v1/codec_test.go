package tsnv1

import (
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestJSONCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	if c == nil {
		t.Fatalf("codec %q not registered", CodecName)
	}
	b, err := c.Marshal(&ListReply{AllUsers: []string{"alice"}, Status: Status_SUCCESS})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out ListReply
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != Status_SUCCESS || len(out.AllUsers) != 1 {
		t.Fatalf("unexpected reply %+v", out)
	}
}
