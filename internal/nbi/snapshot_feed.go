package nbi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/kb"
	"github.com/signalsfoundry/orrery/model"
	"google.golang.org/protobuf/encoding/protojson"
)

const feedWriteTimeout = 5 * time.Second

// SnapshotFeed pushes published frames to browser renderers over a
// WebSocket. Each text message is the protojson encoding of the same Struct
// WatchSnapshots streams over gRPC. Like WatchSnapshots, a slow client skips
// to the newest frame.
type SnapshotFeed struct {
	store    *kb.KnowledgeBase
	metrics  *observability.APICollector
	log      logging.Logger
	upgrader websocket.Upgrader
}

// NewSnapshotFeed returns an http.Handler serving frames from store.
func NewSnapshotFeed(store *kb.KnowledgeBase, metrics *observability.APICollector, log logging.Logger) *SnapshotFeed {
	if log == nil {
		log = logging.Noop()
	}
	return &SnapshotFeed{
		store:   store,
		metrics: metrics,
		log:     log,
		upgrader: websocket.Upgrader{
			// Renderers are served from their own origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (f *SnapshotFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), f.log.With(logging.String("remote", r.RemoteAddr)))

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		log.Warn(ctx, "snapshot feed upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	f.metrics.WatcherOpened()
	defer f.metrics.WatcherClosed()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Clients only ever close; reading is how a close frame is noticed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	frames := make(chan model.Snapshot, 1)
	unsubscribe := f.store.Subscribe(func(ev kb.Event) {
		if ev.Type == kb.EventSnapshotPublished {
			offerLatest(frames, ev.Snapshot)
		}
	})
	defer unsubscribe()

	var lastSeq uint64
	if snap, ok := f.store.Latest(); ok {
		if err := f.send(conn, snap); err != nil {
			log.Warn(ctx, "snapshot feed send failed", logging.Err(err))
			return
		}
		lastSeq = snap.Seq
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case snap := <-frames:
			if snap.Seq <= lastSeq {
				continue
			}
			if err := f.send(conn, snap); err != nil {
				log.Warn(ctx, "snapshot feed send failed", logging.Err(err))
				return
			}
			lastSeq = snap.Seq
		}
	}
}

func (f *SnapshotFeed) send(conn *websocket.Conn, snap model.Snapshot) error {
	raw, err := protojson.Marshal(SnapshotToStruct(snap))
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, raw)
}
