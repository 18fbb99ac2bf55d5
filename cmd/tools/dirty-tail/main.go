package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/voxelworld/internal/eventbus"
	"github.com/annel0/voxelworld/internal/world"
)

const timeFormat = "2006-01-02T15:04:05Z"

func main() {
	var (
		natsURL  = flag.String("nats", "nats://127.0.0.1:4222", "NATS server address")
		stream   = flag.String("stream", "VOXEL", "JetStream stream name")
		minLevel = flag.String("min-level", "dirty_mesh", "Minimum dirty level: active, dirty_mesh, dirty_physics, dirty_structure")
		sources  = flag.String("sources", "", "World manager IDs filter (comma-separated)")
		limit    = flag.Int("limit", 0, "Stop after N events (0 - follow forever)")
	)
	flag.Parse()

	level, ok := world.ParseState(*minLevel)
	if !ok {
		fmt.Printf("❌ Unknown level: %s\n", *minLevel)
		os.Exit(1)
	}

	bus, err := eventbus.NewNATSBus(*natsURL, *stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	events := make(chan *eventbus.DirtyEvent, 64)
	sub, err := bus.Subscribe(ctx, eventbus.Filter{MinLevel: level, Sources: parseStringList(*sources)},
		func(_ context.Context, ev *eventbus.DirtyEvent) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
	if err != nil {
		log.Fatalf("❌ Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	fmt.Printf("🎬 Tailing %s (min level: %s)\n", eventbus.DirtySubject, level)

	count := 0
	for {
		select {
		case ev := <-events:
			fmt.Printf("%s  %-16s chunk=%-14s src=%s id=%s\n",
				ev.Timestamp.Format(timeFormat), ev.Level, ev.Chunk, shortID(ev.Source), shortID(ev.ID))
			count++
			if *limit > 0 && count >= *limit {
				return
			}
		case <-ctx.Done():
			fmt.Printf("\n✅ Received %d events\n", count)
			return
		}
	}
}

// parseStringList разбирает список через запятую
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
