package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"movieflix/models"
	"movieflix/repository"
)

const testSecret = "test-secret"

func newTestTokens() *TokenIssuer {
	return NewTokenIssuer(testSecret, 7*24*time.Hour)
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "got %v", err)
}

type sentPasscode struct {
	To   string
	Code string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentPasscode
	err  error
}

func (f *fakeSender) SendPasscode(_ context.Context, to, code string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentPasscode{To: to, Code: code})
	return nil
}

func (f *fakeSender) last() sentPasscode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeGateway struct {
	secret  string
	nextID  string
	err     error
	created []int64
}

func (g *fakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, _ string) (*GatewayOrder, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, amountMinor)
	id := g.nextID
	if id == "" {
		id = "order_1"
	}
	return &GatewayOrder{ID: id, Amount: amountMinor, Currency: currency}, nil
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return PaymentSignature(g.secret, orderID, paymentID) == signature
}

type recordingNotifier struct {
	mu   sync.Mutex
	subs []models.Subscription
}

func (n *recordingNotifier) SubscriptionActivated(sub models.Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, sub)
}

var errBoom = errors.New("boom")

// failingPasscodes wraps a passcode repository and fails DeleteExpired.
type failingPasscodes struct {
	repository.PasscodeRepository
}

func (failingPasscodes) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errBoom
}
