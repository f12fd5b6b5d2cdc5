package core

import (
	"fmt"
	"testing"
)

func benchmarkRosterBroadcast(b *testing.B, viewers int) {
	st, err := newBenchStore()
	if err != nil {
		b.Fatalf("create store: %v", err)
	}
	defer st.Close()

	hub := NewHub(st, nil)

	ctx := b.Context()
	for i := 0; i < viewers; i++ {
		username := fmt.Sprintf("user-%03d", i)
		user, err := st.CreateUser(ctx, username, username, "", "hash")
		if err != nil {
			b.Fatalf("create user: %v", err)
		}
		c := NewClient(fmt.Sprintf("conn-%03d", i), user, 0)
		hub.presence.Upsert(c)
		// Drain so the broadcast never hits a full buffer.
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hub.BroadcastRoster(ctx)
	}
}

func BenchmarkRosterBroadcast_10(b *testing.B)  { benchmarkRosterBroadcast(b, 10) }
func BenchmarkRosterBroadcast_50(b *testing.B)  { benchmarkRosterBroadcast(b, 50) }
func BenchmarkRosterBroadcast_200(b *testing.B) { benchmarkRosterBroadcast(b, 200) }
