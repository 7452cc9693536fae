package serve

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"livecam/video"
	"livecam/video/process"
)

const (
	// Time allowed to write message to the client
	writeWait  = 10 * time.Second
	pingPeriod = 10 * time.Second

	// Events queued per client before new ones are dropped.
	clientBacklog = 16
)

// Event is one message on the events websocket.
type Event struct {
	Type      string
	Timestamp int64

	// Set for "fps" events.
	FPS  float64 `json:",omitempty"`
	Tier string  `json:",omitempty"`

	// Set for "capture" events.
	Seq     int    `json:",omitempty"`
	Outcome string `json:",omitempty"`
	Path    string `json:",omitempty"`
	Error   string `json:",omitempty"`
}

// EventUpdater pushes pipeline events to websocket clients. Publishing never
// blocks the caller; slow clients miss events.
type EventUpdater struct {
	upgrader websocket.Upgrader
	cs       map[chan []byte]bool
	addc     chan chan []byte
	delc     chan chan []byte
	notify   chan []byte
	done     chan bool
	once     sync.Once
	clients  atomic.Int32
}

func NewEventUpdater() *EventUpdater {
	m := &EventUpdater{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		cs:     make(map[chan []byte]bool),
		addc:   make(chan chan []byte),
		delc:   make(chan chan []byte),
		notify: make(chan []byte, clientBacklog),
		done:   make(chan bool),
	}
	go func() {
		for {
			select {
			case <-m.done:
				return
			case c := <-m.addc:
				m.cs[c] = true
				m.clients.Store(int32(len(m.cs)))
			case c := <-m.delc:
				delete(m.cs, c)
				m.clients.Store(int32(len(m.cs)))
			case msg := <-m.notify:
				for k := range m.cs {
					select {
					case k <- msg:
					default:
					}
				}
			}
		}
	}()
	return m
}

// Clients returns the number of connected clients.
func (m *EventUpdater) Clients() int {
	return int(m.clients.Load())
}

func (m *EventUpdater) publish(e Event) {
	js, err := json.Marshal(e)
	if err != nil {
		log.Errorf("Failed to encode %v event: %v", e.Type, err)
		return
	}
	select {
	case m.notify <- js:
	default:
		log.Debugf("Dropped %v event", e.Type)
	}
}

func (m *EventUpdater) FPSSample(fps float64, tier process.Tier) {
	m.publish(Event{
		Type:      "fps",
		Timestamp: time.Now().Unix(),
		FPS:       fps,
		Tier:      tier.String(),
	})
}

func (m *EventUpdater) CaptureDone(r video.CaptureResult) {
	e := Event{
		Type:      "capture",
		Timestamp: r.Time.Unix(),
		Seq:       r.Seq,
		Outcome:   string(r.Outcome),
		Path:      r.Path,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	m.publish(e)
}

func (m *EventUpdater) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *EventUpdater) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.WithField("addr", r.RemoteAddr).Errorf("Websocket handshake failed for event stream: %v", err)
		}
		return
	}
	go m.serve(ws)
}

func (m *EventUpdater) serve(ws *websocket.Conn) {
	clog := log.WithField("addr", ws.RemoteAddr())
	clog.Info("connected to event socket")
	defer func() {
		ws.Close()
		clog.Info("disconnected from event socket")
	}()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	notifyc := make(chan []byte, clientBacklog)
	select {
	case m.addc <- notifyc:
	case <-m.done:
		return
	}
	defer func() {
		select {
		case m.delc <- notifyc:
		case <-m.done:
		}
	}()

	// Even though we don't care about incoming messages, we need to read from
	// the socket in order to process control messages.
	closed := make(chan bool)
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-m.done:
			return
		case <-closed:
			return
		case msg := <-notifyc:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-pingTicker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}
