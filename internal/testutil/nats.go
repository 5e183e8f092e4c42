package testutil

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

// StartJetStream starts an embedded NATS server with JetStream enabled
// on a random port and returns a connected JetStream context
func StartJetStream(t *testing.T) (nats.JetStreamContext, func()) {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      server.RANDOM_PORT,
		NoLog:     true,
		NoSigs:    true,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	s, err := server.NewServer(opts)
	require.NoError(t, err)

	go s.Start()
	if !s.ReadyForConnections(10 * time.Second) {
		t.Fatal("Unable to start NATS server")
	}

	nc, err := nats.Connect(s.ClientURL(), nats.Timeout(5*time.Second))
	require.NoError(t, err)

	js, err := nc.JetStream(nats.MaxWait(5 * time.Second))
	require.NoError(t, err)

	cleanup := func() {
		nc.Close()
		s.Shutdown()
	}

	return js, cleanup
}

// ConsumeOne waits for a single message on a subject
func ConsumeOne(t *testing.T, js nats.JetStreamContext, subject string, timeout time.Duration) []byte {
	t.Helper()

	msgCh := make(chan *nats.Msg, 1)
	sub, err := js.Subscribe(subject, func(msg *nats.Msg) {
		select {
		case msgCh <- msg:
		default:
		}
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	select {
	case msg := <-msgCh:
		return msg.Data
	case <-time.After(timeout):
		t.Fatalf("timeout waiting for message on %s", subject)
		return nil
	}
}
