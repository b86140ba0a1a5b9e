package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/diadiem/internal/core/filter"
	"github.com/samirrijal/diadiem/internal/core/usecases"
	"github.com/samirrijal/diadiem/internal/core/view"
)

const exploreQueryLocal = "explore_query"

// wsOutbound is every server-to-client frame.
type wsOutbound struct {
	Type     string         `json:"type"` // "snapshot" | "error"
	Snapshot *view.Snapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
}

var errMissingIntentType = errors.New("intent has no type")

// decodeIntent parses one client frame.
func decodeIntent(msg []byte) (view.Intent, error) {
	var intent view.Intent
	if err := json.Unmarshal(msg, &intent); err != nil {
		return view.Intent{}, fmt.Errorf("decode intent: %w", err)
	}
	if intent.Type == "" {
		return view.Intent{}, errMissingIntentType
	}
	return intent, nil
}

// ExploreHandler returns a handler that runs one explore session per
// connection. The connection's query string is the initial address.
// Clients send intents as JSON, e.g.
//
//	{"type":"type","keyword":"phở"}
//	{"type":"commit","filters":{"location":"Hà Nội","open":"true"}}
//	{"type":"bounds","bounds":{"min_lat":20.9,"min_lon":105.7,"max_lat":21.1,"max_lon":105.9}}
//
// and receive a snapshot after every state change.
func ExploreHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		query, _ := c.Locals(exploreQueryLocal).(string)
		remoteAddr := c.RemoteAddr().String()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			_ = c.SetWriteDeadline(time.Now().Add(10 * time.Second))
			return c.WriteMessage(websocket.TextMessage, data)
		}

		loc := filter.NewMemoryLocation(query)
		session := usecases.NewExploreSession(deps.Directory.Provider(), loc, func(s view.Snapshot) {
			_ = writeJSON(wsOutbound{Type: "snapshot", Snapshot: &s})
		}, deps.Explore)
		log := slog.Default().With("session_id", session.ID(), "remote_addr", remoteAddr)
		log.Info("explore client connected", "query", query)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go session.Run(ctx)

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			intent, err := decodeIntent(msg)
			if err != nil {
				log.Debug("rejected intent", "error", err)
				_ = writeJSON(wsOutbound{Type: "error", Error: "invalid intent"})
				continue
			}
			if !session.Send(intent) {
				break
			}
		}

		close(done)
		session.Close()
		<-session.Done()
		log.Info("explore client disconnected")
	}
}
