// Package timelinesvc implements the timeline fan-out engine on top of the
// registry, follow graph and timeline store. It is consumed by the gRPC and
// HTTP transports.
//
// Example:
//
//	svc := timelinesvc.New(rt)
//	_, _ = svc.CreateUser(ctx, "alice")
//	_, _ = svc.CreateUser(ctx, "bob")
//	_, _ = svc.Follow(ctx, "bob", "alice")
//	ch, _ := svc.Connect(ctx, "bob", timelinesvc.ConnectOptions{})
//	defer svc.Disconnect("bob", ch)
//	_, _ = svc.Post(ctx, "alice", "hello")
//	msg := <-ch.C() // alice's post
package timelinesvc

// Delivery notes
//
//   - A post is accepted once it is durable in the author's timeline.
//     Follower appends and live pushes run afterwards on per-recipient
//     lanes, each in acceptance order.
//   - A follower whose session queue stays full for pushTimeoutMs is
//     disconnected with delivery.ErrSlowConsumer. The post is already in
//     their timeline and comes back in the replay on reconnect.
//   - Authors do not receive their own posts live.
//   - Filters (CEL) only decide what a session is sent; storage is unaffected.
