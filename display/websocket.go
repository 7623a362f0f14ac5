package almanac

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	As "github.com/maroda/almanac/server"
	At "github.com/maroda/almanac/types"
)

// FeedInterval is how often /ws pushes a TodayFeed
var FeedInterval = 5 * time.Second

// TodayFeed is what the websocket pushes on every tick
type TodayFeed struct {
	Estimate EstimateResponse `json:"estimate"`
	Live     *At.MoonReport   `json:"live,omitempty"` // nil until the first refresh
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GetTodayFeed estimates today in the view's zone alongside the live report
func (v *View) GetTodayFeed() TodayFeed {
	return TodayFeed{
		Estimate: NewEstimateResponse(As.Estimate(v.now())),
		Live:     v.LiveReport(),
	}
}

func (v *View) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// The client never sends anything, reading only notices the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(v.GetTodayFeed()); err != nil {
		return
	}

	ticker := time.NewTicker(FeedInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteJSON(v.GetTodayFeed()); err != nil {
				slog.Debug("Websocket closed", slog.Any("error", err))
				return // Connection closed
			}
		case <-closed:
			return
		}
	}
}
