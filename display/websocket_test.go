package almanac_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	Ad "github.com/maroda/almanac/display"
)

func TestView_WebsocketHandler(t *testing.T) {
	Ad.FeedInterval = 20 * time.Millisecond
	t.Cleanup(func() { Ad.FeedInterval = 5 * time.Second })

	view := makeTestView(t, makeUpstream(t).URL)
	server := httptest.NewServer(view.SetupMux())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("could not dial websocket: %v", err)
	}
	defer conn.Close()

	t.Run("First feed is sent on connect", func(t *testing.T) {
		var feed Ad.TodayFeed
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		err := conn.ReadJSON(&feed)
		assertError(t, err, nil)

		assertString(t, feed.Estimate.Date, "2026-10-14")
		if feed.Live != nil {
			t.Error("expected no live report before a refresh")
		}
	})

	t.Run("Later feeds carry the live report", func(t *testing.T) {
		view.SetLive(&liveReport)

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		for {
			var feed Ad.TodayFeed
			if err := conn.ReadJSON(&feed); err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if feed.Live != nil {
				assertString(t, string(feed.Live.MoonPhase.PhaseName), "Waning Crescent")
				break
			}
		}
	})
}

func TestView_GetTodayFeed(t *testing.T) {
	view := makeTestView(t, makeUpstream(t).URL)
	feed := view.GetTodayFeed()

	assertString(t, feed.Estimate.Date, "2026-10-14")
	assertInt(t, feed.Estimate.Day, 14)
	if feed.Estimate.Emoji == "" {
		t.Error("expected the phase emoji")
	}
}
