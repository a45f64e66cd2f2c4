package ws

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/partyroom-backend/internal/identity"
	"github.com/DoyleJ11/partyroom-backend/internal/session"
)

var playerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

type Options struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	OutboxSize   int
	// In dev ONLY, loosen origin checks, e.g. "localhost:*".
	OriginPatterns []string
	Log            *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = 20 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 32
	}
	return o
}

// Handler upgrades to a websocket and pumps frames between the connection and the
// session coordinator. The client's identity comes from ?playerId=; a missing or
// malformed one gets a fresh UUID, announced in the welcome message.
func Handler(coord *session.Coordinator, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerId")
		if !playerIDPattern.MatchString(playerID) {
			playerID = uuid.NewString()
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns})
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		h := identity.NewHandle(playerID, opts.OutboxSize)
		coord.Connect(h)
		defer func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer dcancel()
			coord.Disconnect(dctx, h)
			h.Close()
		}()
		log.Debug("connected", zap.String("player", playerID), zap.String("handle", h.ID))

		// Writer goroutine
		go func() {
			defer cancel()
			ping := time.NewTicker(opts.PingInterval)
			defer ping.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-h.Outbox():
					if !ok {
						// replaced by a newer connection, or too slow to keep up
						conn.Close(websocket.StatusPolicyViolation, "connection closed by server")
						return
					}
					wctx, wcancel := context.WithTimeout(ctx, opts.WriteTimeout)
					err := wsjson.Write(wctx, conn, msg)
					wcancel()
					if err != nil {
						return
					}
				case <-ping.C:
					pctx, pcancel := context.WithTimeout(ctx, opts.WriteTimeout)
					err := conn.Ping(pctx)
					pcancel()
					if err != nil {
						return
					}
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Debug("client closed", zap.String("player", playerID))
				default:
					log.Debug("read failed", zap.String("player", playerID), zap.Error(err))
				}
				return
			}
			coord.Receive(ctx, h, data)
		}
	}
}
