package mail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"userauth/internal/observability/metrics"
	"userauth/internal/service"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeSender struct {
	mu       sync.Mutex
	failures int // fail this many calls before succeeding
	calls    int
	sent     []Message
}

func (f *fakeSender) Send(ctx context.Context, m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("421 try again later")
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeSender) snapshot() (calls int, sent []Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]Message(nil), f.sent...)
}

func testMessage(to string) service.ActivationMessage {
	return service.ActivationMessage{
		To:                to,
		DisplayName:       "Ann Lee",
		Code:              "123456",
		ActivationBaseURL: "http://localhost:4200/activate-account",
		Subject:           "Account activation",
	}
}

func fastConfig() DispatcherConfig {
	return DispatcherConfig{From: "contact@userauth.local", QueueSize: 8, Workers: 2, Attempts: 3, BaseBackoff: time.Millisecond}
}

func TestDispatcherDeliversRenderedMessage(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &fakeSender{}
	d := NewDispatcher(sender, fastConfig(), nil)
	d.Start(context.Background())

	require.NoError(t, d.SendActivation(context.Background(), testMessage("ann@x.com")))
	d.Close()

	_, sent := sender.snapshot()
	require.Len(t, sent, 1)
	m := sent[0]
	assert.Equal(t, "contact@userauth.local", m.From)
	assert.Equal(t, "ann@x.com", m.To)
	assert.Equal(t, "Account activation", m.Subject)
	assert.Contains(t, m.TextBody, "Hello Ann Lee")
	assert.Contains(t, m.TextBody, "123456")
	assert.Contains(t, m.TextBody, "http://localhost:4200/activate-account?email=ann%40x.com&token=123456")
	assert.Contains(t, m.HTMLBody, `href="http://localhost:4200/activate-account?email=ann%40x.com&amp;token=123456"`)
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &fakeSender{failures: 2}
	d := NewDispatcher(sender, fastConfig(), nil)
	d.Start(context.Background())

	require.NoError(t, d.SendActivation(context.Background(), testMessage("ann@x.com")))
	d.Close()

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Len(t, sent, 1)
}

func TestDispatcherGivesUpAfterMaxAttempts(t *testing.T) {
	defer goleak.VerifyNone(t)

	failedBefore := testutil.ToFloat64(metrics.EmailsTotal.WithLabelValues("failed"))
	sender := &fakeSender{failures: 10}
	d := NewDispatcher(sender, fastConfig(), nil)
	d.Start(context.Background())

	require.NoError(t, d.SendActivation(context.Background(), testMessage("ann@x.com")))
	d.Close()

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Empty(t, sent)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EmailsTotal.WithLabelValues("failed"))-failedBefore)
}

func TestDispatcherRejectsWhenQueueFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := fastConfig()
	cfg.QueueSize = 1
	sender := &fakeSender{}
	d := NewDispatcher(sender, cfg, nil)

	require.NoError(t, d.SendActivation(context.Background(), testMessage("a@x.com")))
	err := d.SendActivation(context.Background(), testMessage("b@x.com"))
	assert.ErrorIs(t, err, ErrQueueFull)

	// Close without Start still drains what was accepted.
	d.Close()
	_, sent := sender.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@x.com", sent[0].To)
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDispatcher(&fakeSender{}, fastConfig(), nil)
	d.Start(context.Background())
	d.Close()
	d.Close()

	assert.ErrorIs(t, d.SendActivation(context.Background(), testMessage("ann@x.com")), ErrDispatcherClosed)
}

func TestDispatcherDrainsManyMessages(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := fastConfig()
	cfg.QueueSize = 32
	cfg.Workers = 4
	sender := &fakeSender{}
	d := NewDispatcher(sender, cfg, nil)
	d.Start(context.Background())

	for i := 0; i < 32; i++ {
		require.NoError(t, d.SendActivation(context.Background(), testMessage("ann@x.com")))
	}
	d.Close()

	_, sent := sender.snapshot()
	assert.Len(t, sent, 32)
}

func TestActivationLinkKeepsExistingQuery(t *testing.T) {
	link, err := ActivationLink("https://app.example.com/activate?lang=en", "000123", "Ann@X.com")
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/activate?email=Ann%40X.com&lang=en&token=000123", link)
}
