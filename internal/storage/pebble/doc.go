// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// snapshots, batches, prefix scans and minimal metrics hooks. It is the single
// durable store behind timelines, the follow graph and the user registry.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeAlways,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(context.Background(), b)
//	b.Close()
//
//	_ = db.ScanPrefix([]byte("u/"), func(k, v []byte) bool { return true })
package pebblestore
