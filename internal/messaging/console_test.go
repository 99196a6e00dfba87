package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakeClient struct {
	opts       *mqtt.ClientOptions
	connectErr error
	publishErr error

	mu          sync.Mutex
	connected   bool
	handler     mqtt.MessageHandler
	published   [][]byte
	disconnects int
}

func (f *fakeClient) Connect() mqtt.Token {
	if f.connectErr != nil {
		return doneToken(f.connectErr)
	}
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	f.opts.OnConnect(nil)
	return doneToken(nil)
}

func (f *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	f.handler = callback
	f.mu.Unlock()
	return doneToken(nil)
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, payload.([]byte))
	return doneToken(f.publishErr)
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
}

func (f *fakeClient) deliver(topic, payload string) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(nil, fakeMessage{topic: topic, payload: []byte(payload)})
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestConsole(t *testing.T, fake *fakeClient, limit int) *Console {
	t.Helper()
	return NewConsole(Options{
		LogLimit:    limit,
		WaitTimeout: time.Second,
		Logger:      quietLogger(),
		NewClient: func(opts *mqtt.ClientOptions) Client {
			fake.opts = opts
			return fake
		},
	})
}

func waitForLine(t *testing.T, c *Console, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, line := range c.Lines() {
			if strings.Contains(line, want) {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("line %q never logged; have %v", want, c.Lines())
}

func TestCommandPayloads(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{TestComponent("Hands"), `{"command":"test_hands"}`},
		{TestComponent("neck"), `{"command":"test_neck"}`},
		{TestComponent("All"), `{"command":"test_all"}`},
		{Stop, `{"command":"test_stop"}`},
		{Idle, `{"command":"idle"}`},
		{Sleep, `{"response":"sleep"}`},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Name, func(t *testing.T) {
			got, err := tt.cmd.Payload()
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("EYES")
	require.NoError(t, err)
	assert.Equal(t, "test_eyes", cmd.Value)

	cmd, err = ParseCommand("sleep")
	require.NoError(t, err)
	assert.Equal(t, Sleep, cmd)

	_, err = ParseCommand("dance")
	assert.Error(t, err)
	_, err = ParseCommand("  ")
	assert.Error(t, err)
}

func TestConsole_OpenSubscribesAndLogsMessages(t *testing.T) {
	fake := &fakeClient{}
	c := newTestConsole(t, fake, 0)
	defer c.Close()

	require.NoError(t, c.Open(context.Background()))
	waitForLine(t, c, "Subscribed to "+DefaultTopic)
	assert.Equal(t, []string{DefaultBrokerURL}, []string{fake.opts.Servers[0].String()})
	assert.True(t, c.Connected())

	fake.deliver(DefaultTopic, `{"status":"ok"}`)
	waitForLine(t, c, DefaultTopic+`: {"status":"ok"}`)
}

func TestConsole_PublishSendsOnce(t *testing.T) {
	fake := &fakeClient{}
	c := newTestConsole(t, fake, 0)
	defer c.Close()
	require.NoError(t, c.Open(context.Background()))

	require.NoError(t, c.Publish(TestComponent("speaker")))
	require.Len(t, fake.published, 1)
	assert.JSONEq(t, `{"command":"test_speaker"}`, string(fake.published[0]))
	waitForLine(t, c, "Publish success")
}

func TestConsole_PublishErrorIsNotRetried(t *testing.T) {
	fake := &fakeClient{publishErr: errors.New("broker said no")}
	c := newTestConsole(t, fake, 0)
	defer c.Close()
	require.NoError(t, c.Open(context.Background()))

	err := c.Publish(Stop)
	assert.Error(t, err)
	assert.Len(t, fake.published, 1)
	waitForLine(t, c, "Publish error: broker said no")
}

func TestConsole_PublishWhileDisconnected(t *testing.T) {
	fake := &fakeClient{}
	c := newTestConsole(t, fake, 0)

	err := c.Publish(Idle)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, fake.published)
	waitForLine(t, c, "Client not connected")
}

func TestConsole_OpenFailure(t *testing.T) {
	fake := &fakeClient{connectErr: errors.New("network unreachable")}
	c := newTestConsole(t, fake, 0)

	err := c.Open(context.Background())
	require.Error(t, err)
	assert.False(t, c.Connected())
	waitForLine(t, c, "MQTT error: network unreachable")
	assert.ErrorIs(t, c.Publish(Sleep), ErrNotConnected)
}

func TestConsole_CloseIsIdempotent(t *testing.T) {
	fake := &fakeClient{}
	c := newTestConsole(t, fake, 0)
	require.NoError(t, c.Open(context.Background()))

	c.Close()
	c.Close()

	assert.Equal(t, 1, fake.disconnects)
	assert.False(t, c.Connected())
	assert.ErrorIs(t, c.Open(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.Publish(Stop), ErrNotConnected)
}

func TestConsole_LogIsBounded(t *testing.T) {
	fake := &fakeClient{}
	c := newTestConsole(t, fake, 5)

	for i := 0; i < 20; i++ {
		c.append(fmt.Sprintf("line %d", i))
	}

	lines := c.Lines()
	require.Len(t, lines, 5)
	assert.Equal(t, "line 15", lines[0])
	assert.Equal(t, "line 19", lines[4])
}
