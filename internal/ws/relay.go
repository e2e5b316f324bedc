package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/lascala-dine/api/internal/feed"
)

// RunRelay forwards every feed event into the hub room of the restaurant it
// belongs to. Call it as a goroutine; it returns when ctx is cancelled.
func RunRelay(ctx context.Context, f *feed.Feed, hub *Hub) {
	sub := f.Subscribe(feed.Filter{})
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			payload, err := json.Marshal(e)
			if err != nil {
				log.Printf("ERROR: marshal feed event: %v", err)
				continue
			}
			hub.BroadcastToRestaurant(e.RestaurantID, Event{Type: e.Type, Payload: payload})
		}
	}
}
