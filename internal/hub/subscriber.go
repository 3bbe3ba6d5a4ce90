package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Conn is the write side of a subscriber connection. *websocket.Conn
// satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Subscriber is one registered connection. A dedicated goroutine writes to
// the connection; the hub never blocks on it. Vehicle updates go through a
// single slot where a newer update replaces an unsent one, replies to pull
// requests through a small queue that is drained first.
type Subscriber struct {
	id           string
	conn         Conn
	writeTimeout time.Duration

	updates chan []byte
	replies chan []byte
	done    chan struct{}
	once    sync.Once
}

func newSubscriber(id string, conn Conn, writeTimeout time.Duration, replyQueue int) *Subscriber {
	return &Subscriber{
		id:           id,
		conn:         conn,
		writeTimeout: writeTimeout,
		updates:      make(chan []byte, 1),
		replies:      make(chan []byte, replyQueue),
		done:         make(chan struct{}),
	}
}

// ID returns the subscriber id.
func (s *Subscriber) ID() string { return s.id }

// Done is closed once the subscriber has been removed.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Reply queues a message for this subscriber only. It reports false when the
// subscriber is gone or its reply queue is full.
func (s *Subscriber) Reply(msg []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.replies <- msg:
		return true
	default:
		return false
	}
}

// push offers a vehicle update, replacing any update still waiting.
func (s *Subscriber) push(msg []byte) {
	select {
	case s.updates <- msg:
		return
	default:
	}
	select {
	case <-s.updates:
		updatesDropped.Inc()
	default:
	}
	select {
	case s.updates <- msg:
	default:
	}
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// writeLoop runs until the subscriber is closed or a write fails. The
// connection is closed on the way out, after any write in flight.
func (s *Subscriber) writeLoop(onFail func(id string)) {
	defer s.conn.Close()
	for {
		var msg []byte
		select {
		case <-s.done:
			return
		case msg = <-s.replies:
		default:
			select {
			case <-s.done:
				return
			case msg = <-s.replies:
			case msg = <-s.updates:
			}
		}
		if err := s.write(msg); err != nil {
			log.WithFields(log.Fields{
				"subscriber": s.id,
			}).WithError(err).Warn("Write failed, evicting subscriber")
			evictions.Inc()
			onFail(s.id)
			return
		}
		messagesSent.Inc()
	}
}

func (s *Subscriber) write(msg []byte) error {
	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return err
		}
	}
	return s.conn.WriteMessage(websocket.TextMessage, msg)
}
