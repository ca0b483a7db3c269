package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/core/usecases"
	"github.com/samirrijal/arnav/internal/pkg/metrics"
)

// wsMessage is a sensor reading or a target change sent by the client:
//
//	{"type":"location","location":{"lat":..,"lon":..},"accuracy":5}
//	{"type":"orientation","alpha":..,"beta":..,"gamma":..}
//	{"type":"target","destination":"Pepsi"}
type wsMessage struct {
	Type        string           `json:"type"`
	Location    *domain.GeoPoint `json:"location,omitempty"`
	Accuracy    float64          `json:"accuracy,omitempty"`
	Alpha       *float64         `json:"alpha,omitempty"`
	Beta        *float64         `json:"beta,omitempty"`
	Gamma       *float64         `json:"gamma,omitempty"`
	Destination string           `json:"destination,omitempty"`
}

const wsPingInterval = 30 * time.Second

// NavigateWebSocketHandler runs one navigation session per connection.
// Query: ?destination=<name|queue>&session=<id>. Each accepted reading is
// answered with a NavigationState once both sensors have reported; problems
// are answered with {"error": "..."} and the connection stays open.
func NavigateWebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sessionID := c.Query("session")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		log := slog.Default().With("session", sessionID, "remote", c.RemoteAddr().String())

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		selector := c.Query("destination", deps.DefaultDestination)
		target, err := deps.Navigation.ResolveTarget(ctx, selector, nil)
		if err != nil {
			_ = writeJSON(map[string]string{"error": err.Error()})
			return
		}

		opts := []usecases.SessionOption{usecases.WithAutoAdvance(deps.AutoAdvance)}
		if deps.Publisher != nil {
			opts = append(opts, usecases.WithPublisher(deps.Publisher))
		}
		sess := usecases.NewSession(sessionID, deps.Navigation, target, opts...)

		log.Info("ws session opened", "target", target.Label())
		_ = writeJSON(map[string]any{"session_id": sessionID, "target": target})

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(wsPingInterval)
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
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			reply := handleWSMessage(ctx, deps, sess, raw)
			if reply == nil {
				continue
			}
			if err := writeJSON(reply); err != nil {
				break
			}
		}

		log.Info("ws session closed")
	}
}

// handleWSMessage applies one client message and returns what to send back,
// or nil when there is nothing to send yet.
func handleWSMessage(ctx context.Context, deps *Dependencies, sess *usecases.Session, raw []byte) any {
	var m wsMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]string{"error": "invalid JSON"}
	}

	var (
		st  *domain.NavigationState
		err error
	)
	switch m.Type {
	case "location":
		if m.Location == nil {
			return map[string]string{"error": "location is required"}
		}
		st, err = sess.UpdateLocation(ctx, domain.LocationReading{
			Location: *m.Location,
			Accuracy: m.Accuracy,
			Time:     time.Now(),
		})

	case "orientation":
		st, err = sess.UpdateOrientation(ctx, domain.OrientationReading{Alpha: m.Alpha, Beta: m.Beta, Gamma: m.Gamma})

	case "target":
		target, rerr := deps.Navigation.ResolveTarget(ctx, m.Destination, sess.Location())
		if rerr != nil {
			return map[string]string{"error": rerr.Error()}
		}
		sess.SetTarget(target)
		return map[string]any{"target": target}

	default:
		return map[string]string{"error": "unknown message type: " + m.Type}
	}

	if err != nil {
		if errors.Is(err, domain.ErrIncompleteOrientation) {
			return map[string]string{"error": "orientation reading is missing an axis; keeping the previous one"}
		}
		return map[string]string{"error": err.Error()}
	}
	if st == nil {
		return nil
	}
	return st
}
