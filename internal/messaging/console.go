package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBrokerURL = "wss://broker.emqx.io:8084/mqtt"
	DefaultTopic     = "testtopic/mwtt"
	DefaultLogLimit  = 500

	defaultWaitTimeout = 10 * time.Second
)

var (
	// ErrNotConnected is returned by Publish while the broker connection is down
	ErrNotConnected = errors.New("client not connected")
	// ErrClosed is returned by Open after Close
	ErrClosed = errors.New("console closed")

	errTimeout = errors.New("timed out waiting for broker")
)

// Client is the part of the paho client the console drives
type Client interface {
	Connect() mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// ClientFactory builds a client from broker options
type ClientFactory func(opts *mqtt.ClientOptions) Client

func newPahoClient(opts *mqtt.ClientOptions) Client {
	return mqtt.NewClient(opts)
}

// Options configures a Console
type Options struct {
	BrokerURL   string
	Topic       string
	ClientID    string
	LogLimit    int
	WaitTimeout time.Duration
	Logger      *logrus.Logger
	NewClient   ClientFactory
}

// Console is a publish/subscribe test console bound to one topic
type Console struct {
	opts   Options
	logger *logrus.Entry

	mu      sync.Mutex
	client  Client
	lines   []string
	updates chan string
	closed  bool
}

var pahoLoggerOnce sync.Once

// NewConsole creates a console; nothing is connected until Open
func NewConsole(opts Options) *Console {
	if opts.BrokerURL == "" {
		opts.BrokerURL = DefaultBrokerURL
	}
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	if opts.ClientID == "" {
		opts.ClientID = "michi-" + uuid.New().String()[:8]
	}
	if opts.LogLimit <= 0 {
		opts.LogLimit = DefaultLogLimit
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = defaultWaitTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.NewClient == nil {
		opts.NewClient = newPahoClient
	}

	return &Console{
		opts: opts,
		logger: opts.Logger.WithFields(logrus.Fields{
			"broker": opts.BrokerURL,
			"topic":  opts.Topic,
		}),
		updates: make(chan string, 64),
	}
}

// Open connects to the broker. The topic subscription is (re)established on every connect.
func (c *Console) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.client != nil {
		c.mu.Unlock()
		return nil
	}

	pahoLoggerOnce.Do(func() {
		paho := c.opts.Logger.WithField("component", "paho")
		mqtt.ERROR = paho
		mqtt.CRITICAL = paho
	})

	opts := mqtt.NewClientOptions().
		AddBroker(c.opts.BrokerURL).
		SetClientID(c.opts.ClientID).
		SetConnectTimeout(c.opts.WaitTimeout).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(mqtt.Client) { go c.onConnect() }).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.append(fmt.Sprintf("MQTT error: %v", err))
		})

	client := c.opts.NewClient(opts)
	c.client = client
	c.mu.Unlock()

	if err := c.wait(ctx, client.Connect()); err != nil {
		c.append(fmt.Sprintf("MQTT error: %v", err))
		c.mu.Lock()
		if c.client == client {
			c.client = nil
		}
		c.mu.Unlock()
		client.Disconnect(0)
		return fmt.Errorf("failed to connect to %s: %w", c.opts.BrokerURL, err)
	}
	return nil
}

func (c *Console) onConnect() {
	c.mu.Lock()
	client := c.client
	closed := c.closed
	c.mu.Unlock()
	if client == nil || closed {
		return
	}

	c.append("Connected → " + c.opts.BrokerURL)

	token := client.Subscribe(c.opts.Topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		c.append(fmt.Sprintf("%s: %s", msg.Topic(), string(msg.Payload())))
	})
	if err := c.wait(context.Background(), token); err != nil {
		c.append(fmt.Sprintf("Subscribe error: %v", err))
		return
	}
	c.append("Subscribed to " + c.opts.Topic)
	c.append("Ready to publish commands!")
}

// Publish sends cmd to the topic once. Failures are logged and returned, never retried.
func (c *Console) Publish(cmd Command) error {
	payload, err := cmd.Payload()
	if err != nil {
		return err
	}
	c.append(fmt.Sprintf("Publishing → %s: %s", c.opts.Topic, payload))

	c.mu.Lock()
	client := c.client
	closed := c.closed
	c.mu.Unlock()

	if closed || client == nil || !client.IsConnected() {
		c.append("Client not connected")
		return ErrNotConnected
	}

	if err := c.wait(context.Background(), client.Publish(c.opts.Topic, 0, false, payload)); err != nil {
		c.append(fmt.Sprintf("Publish error: %v", err))
		return err
	}
	c.append("Publish success")
	return nil
}

// Connected reports whether the broker connection is up
func (c *Console) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.client != nil && c.client.IsConnected()
}

// Lines returns a copy of the bounded log, oldest first
func (c *Console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// Updates delivers log lines as they are appended. Lines are dropped when the reader falls behind.
func (c *Console) Updates() <-chan string {
	return c.updates
}

// Close disconnects from the broker. Safe to call more than once.
func (c *Console) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client != nil {
		client.Disconnect(250)
	}
	c.logger.Info("Console closed")
}

func (c *Console) append(line string) {
	c.logger.Info(line)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	if over := len(c.lines) - c.opts.LogLimit; over > 0 {
		c.lines = append(c.lines[:0:0], c.lines[over:]...)
	}
	if c.closed {
		return
	}
	select {
	case c.updates <- line:
	default:
	}
}

func (c *Console) wait(ctx context.Context, token mqtt.Token) error {
	timer := time.NewTimer(c.opts.WaitTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errTimeout
	}
}
