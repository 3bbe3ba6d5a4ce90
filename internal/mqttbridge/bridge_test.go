package mqttbridge

import (
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirnavas/metro-tracker/internal/hub"
	"github.com/samirnavas/metro-tracker/internal/models"
)

type fakeToken struct {
	err      error
	complete bool
}

func (t *fakeToken) Wait() bool                     { return t.complete }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.complete }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.complete {
		close(ch)
	}
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu      sync.Mutex
	msgs    []published
	token   *fakeToken
	offline bool
}

func (p *fakePublisher) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return p.token
}

func (p *fakePublisher) IsConnectionOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.offline
}

// setBroker switches between a reachable broker and one that refuses publishes
// while the client reconnects.
func (p *fakePublisher) setBroker(up bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offline = !up
	if up {
		p.token = &fakeToken{complete: true}
	} else {
		p.token = &fakeToken{complete: true, err: errors.New("not connected")}
	}
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func TestConn_RoutesMessagesByType(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{complete: true}}
	c := NewConn(pub, "metro/vehicles")

	require.NoError(t, c.SetWriteDeadline(time.Now().Add(time.Second)))
	require.NoError(t, c.WriteMessage(1, []byte(`{"type":"ROUTES","data":[]}`)))
	require.NoError(t, c.WriteMessage(1, []byte(`{"type":"VEHICLE_UPDATE","timestamp":1,"data":[]}`)))

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "metro/vehicles/routes", pub.msgs[0].topic)
	assert.True(t, pub.msgs[0].retained)
	assert.Equal(t, "metro/vehicles", pub.msgs[1].topic)
	assert.False(t, pub.msgs[1].retained)
}

func TestConn_Errors(t *testing.T) {
	slow := NewConn(&fakePublisher{token: &fakeToken{}}, "t")
	assert.ErrorIs(t, slow.WriteMessage(1, []byte(`{}`)), ErrPublishTimeout)

	broken := NewConn(&fakePublisher{token: &fakeToken{complete: true, err: errors.New("publish rejected")}}, "t")
	assert.EqualError(t, broken.WriteMessage(1, []byte(`{}`)), "publish rejected")

	pub := &fakePublisher{token: &fakeToken{complete: true}}
	closed := NewConn(pub, "t")
	require.NoError(t, closed.Close())
	assert.ErrorIs(t, closed.WriteMessage(1, []byte(`{}`)), ErrClosed)
	assert.Empty(t, pub.msgs)
}

func TestConn_DropsWhileReconnecting(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	pub := &fakePublisher{}
	pub.setBroker(false)
	c := NewConn(pub, "t")
	before := testutil.ToFloat64(dropped)

	assert.NoError(t, c.WriteMessage(1, []byte(`{}`)))
	assert.NoError(t, c.WriteMessage(1, []byte(`{}`)))
	assert.Equal(t, 2.0, testutil.ToFloat64(dropped)-before)

	pub.setBroker(true)
	assert.NoError(t, c.WriteMessage(1, []byte(`{}`)))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Equal(t, logrus.InfoLevel, entries[1].Level)
}

type staticEngine struct{}

func (staticEngine) Advance(time.Time, time.Duration) {}
func (staticEngine) AdvanceAndProject(time.Time, time.Duration) []models.VehicleSnapshot {
	return []models.VehicleSnapshot{{ID: "METRO-101"}}
}
func (staticEngine) Snapshot() []models.VehicleSnapshot { return nil }

func TestConn_StaysSubscribedThroughBrokerOutage(t *testing.T) {
	h := hub.New(staticEngine{}, nil)
	defer h.Stop()

	pub := &fakePublisher{}
	pub.setBroker(true)
	_, err := h.Subscribe(NewConn(pub, "metro/vehicles"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return pub.count() == 2 }, time.Second, 5*time.Millisecond)

	pub.setBroker(false)
	h.Tick(time.Now())
	require.Eventually(t, func() bool { return pub.count() == 3 }, time.Second, 5*time.Millisecond)

	pub.setBroker(true)
	for i := 4; i <= 13; i++ {
		h.Tick(time.Now())
		n := i
		require.Eventually(t, func() bool { return pub.count() == n }, time.Second, 5*time.Millisecond)
	}
	assert.Equal(t, 1, h.Len())
}
