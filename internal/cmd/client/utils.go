package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	"github.com/EvModder/438-TSN/internal/cmd/client/transports"
)

// postTimeLayout renders post times the way ctime(3) does.
const postTimeLayout = time.ANSIC

// grpcAddrFromEnv returns the gRPC server address from TSN_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("TSN_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:12021"
}

// dialGRPCContext dials the TSN gRPC endpoint with insecure transport for local/dev.
func dialGRPCContext(_ context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func getTransport() transports.SocialTransport {
	return transports.NewGrpcTransport(dialGRPCContext)
}

// formatPost renders p as `author (time) >> body`.
func formatPost(p transports.Post) string {
	return fmt.Sprintf("%s (%s) >> %s", p.Author, p.Timestamp.Local().Format(postTimeLayout), p.Body)
}

// printStatus writes the status line and returns an error for failures so
// the command exits non-zero.
func printStatus(w io.Writer, st tsnv1.Status) error {
	fmt.Fprintln(w, "status:", st)
	if st != tsnv1.Status_SUCCESS {
		return fmt.Errorf("command failed: %s", st)
	}
	return nil
}
