// Package mqttbridge republishes the broadcast stream to an MQTT broker. The
// bridge registers with the hub like any other subscriber.
package mqttbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/samirnavas/metro-tracker/internal/models"
)

const connectTimeout = 10 * time.Second

var (
	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("mqtt bridge closed")
	// ErrPublishTimeout is returned when the broker does not acknowledge in time.
	ErrPublishTimeout = errors.New("mqtt publish timed out")
)

// Publisher is the part of mqtt.Client the bridge uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnectionOpen() bool
}

// Connect dials the broker.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", broker, err)
	}
	log.WithField("broker", broker).Info("Connected to MQTT broker")
	return client, nil
}

// Conn adapts an MQTT publisher to the hub's connection interface. Vehicle
// updates go to the base topic; the route directory is retained on
// <topic>/routes so new MQTT clients get it at once.
type Conn struct {
	client Publisher
	topic  string
	qos    byte

	mu       sync.Mutex
	deadline time.Time
	closed   bool
	offline  bool
}

// NewConn creates a bridge connection publishing under topic.
func NewConn(client Publisher, topic string) *Conn {
	return &Conn{client: client, topic: topic}
}

// WriteMessage publishes one hub message and waits for the broker until the
// write deadline. While the client is reconnecting, failed publishes are
// dropped instead of reported, so the hub keeps the bridge subscribed.
func (c *Conn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	closed, deadline := c.closed, c.deadline
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	topic, retained := c.route(data)
	token := c.client.Publish(topic, c.qos, retained, data)
	wait := connectTimeout
	if !deadline.IsZero() {
		wait = time.Until(deadline)
	}
	err := ErrPublishTimeout
	if token.WaitTimeout(wait) {
		err = token.Error()
	}
	if err == nil {
		c.setOffline(false, nil)
		return nil
	}
	if !c.client.IsConnectionOpen() {
		dropped.Inc()
		c.setOffline(true, err)
		return nil
	}
	return err
}

func (c *Conn) setOffline(offline bool, err error) {
	c.mu.Lock()
	changed := c.offline != offline
	c.offline = offline
	c.mu.Unlock()
	if !changed {
		return
	}
	if offline {
		log.WithError(err).WithField("topic", c.topic).Warn("MQTT broker unreachable, dropping messages")
	} else {
		log.WithField("topic", c.topic).Info("MQTT publishing resumed")
	}
}

func (c *Conn) route(data []byte) (string, bool) {
	var env struct {
		Type models.MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err == nil && env.Type == models.MessageRoutes {
		return c.topic + "/routes", true
	}
	return c.topic, false
}

// SetWriteDeadline bounds the next publish.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

// Close stops further publishing. The MQTT client itself stays connected.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
