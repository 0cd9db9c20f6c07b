package payments

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	mu    sync.Mutex
	res   GatewayResult
	calls []ChargeRequest
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) Charge(_ context.Context, req ChargeRequest) GatewayResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	return g.res
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type recordingNotifier struct {
	mu       sync.Mutex
	payments []Payment
}

func (n *recordingNotifier) PaymentCompleted(_ context.Context, p Payment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payments = append(n.payments, p)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.payments)
}

func acceptedResult() GatewayResult {
	return GatewayResult{
		Outcome:    GatewayAccepted,
		PaymentID:  "PID-1",
		PaymentURL: "https://pay/x",
		Raw:        json.RawMessage(`{"status":"success","payment_url":"https://pay/x"}`),
	}
}

func newTestService(t *testing.T, gw Gateway) (*Service, *GormStore) {
	t.Helper()
	store := newTestStore(t)
	svc := NewService(store, gw)
	svc.SetLogger(quietLogger())
	return svc, store
}

func TestInitiateAccepted(t *testing.T) {
	gw := &stubGateway{res: acceptedResult()}
	svc, store := newTestService(t, gw)
	ctx := context.Background()

	res, err := svc.Initiate(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, "ORD-1", res.OrderID)
	require.Equal(t, "PID-1", res.PaymentID)
	require.Equal(t, "https://pay/x", res.PaymentURL)
	require.Equal(t, StatusPending, res.Status)
	require.NotEmpty(t, res.Message)
	require.Nil(t, res.Task)

	p, err := store.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, p.Status)
	require.JSONEq(t, `{"status":"success","payment_url":"https://pay/x"}`, string(p.GatewayResponse))

	require.Equal(t, 1, gw.callCount())
	require.Equal(t, "0712345678", gw.calls[0].BuyerPhone)
}

func TestInitiateRejectsAmountAboveLimit(t *testing.T) {
	gw := &stubGateway{res: acceptedResult()}
	svc, store := newTestService(t, gw)
	ctx := context.Background()

	in := validInput()
	in.Amount = decimal.NewFromInt(2_000_000)
	_, err := svc.Initiate(ctx, in)

	fields := invalidFields(t, err)
	require.Contains(t, fields, "amount")
	require.Zero(t, gw.callCount())

	_, err = store.GetByOrderID(ctx, "ORD-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInitiateDuplicateOrder(t *testing.T) {
	gw := &stubGateway{res: acceptedResult()}
	svc, _ := newTestService(t, gw)
	ctx := context.Background()

	_, err := svc.Initiate(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Initiate(ctx, validInput())
	require.ErrorIs(t, err, ErrDuplicateOrder)
	require.Equal(t, 1, gw.callCount())
}

func TestInitiateGatewayRejectedStaysPending(t *testing.T) {
	gw := &stubGateway{res: GatewayResult{
		Outcome: GatewayRejected,
		Reason:  "Invalid phone",
		Raw:     json.RawMessage(`{"status":"error","message":"Invalid phone"}`),
	}}
	svc, store := newTestService(t, gw)
	ctx := context.Background()

	_, err := svc.Initiate(ctx, validInput())
	var gf *GatewayFailure
	require.ErrorAs(t, err, &gf)
	require.Equal(t, GatewayRejected, gf.Result.Outcome)
	require.Contains(t, err.Error(), "Invalid phone")

	p, err := store.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, p.Status)
	require.JSONEq(t, `{"status":"error","message":"Invalid phone"}`, string(p.GatewayResponse))
}

func TestInitiateGatewayUnreachable(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	gw := &stubGateway{res: GatewayResult{Outcome: GatewayUnreachable, Cause: cause}}
	svc, store := newTestService(t, gw)
	ctx := context.Background()

	_, err := svc.Initiate(ctx, validInput())
	var gf *GatewayFailure
	require.ErrorAs(t, err, &gf)
	require.Equal(t, GatewayUnreachable, gf.Result.Outcome)
	require.ErrorIs(t, err, cause)

	p, err := store.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, p.Status)
	require.Empty(t, p.GatewayResponse)
}

func TestInitiateTestPhoneCompletesAfterDelay(t *testing.T) {
	const testPhone = "0700000000"
	gw := &stubGateway{res: GatewayResult{Outcome: GatewayAccepted, Raw: json.RawMessage(`{"status":"success"}`)}}
	svc, store := newTestService(t, gw)

	sim := NewSimulator(50 * time.Millisecond)
	sim.SetLogger(quietLogger())
	t.Cleanup(sim.Shutdown)

	cb := NewCallbackService(store, nil)
	cb.SetLogger(quietLogger())
	notifier := &recordingNotifier{}
	cb.SetNotifier(notifier)
	svc.EnableSimulation(sim, testPhone, cb)

	in := validInput()
	in.BuyerPhone = testPhone
	start := time.Now()
	res, err := svc.Initiate(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, res.Task)

	p, err := store.GetByOrderID(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, p.Status)

	require.NoError(t, waitTask(t, res.Task))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	p, err = store.GetByOrderID(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, p.Status)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(p.CallbackPayload, &payload))
	require.Equal(t, true, payload["simulated"])
	require.Equal(t, "SIM-ORD-1", payload["payment_id"])
	require.Equal(t, "ORD-1", payload["reference"])
	require.Equal(t, 1, notifier.count())

	logs, err := store.Callbacks(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.True(t, logs[0].Simulated)
}

func TestInitiateOtherPhoneIsNotSimulated(t *testing.T) {
	gw := &stubGateway{res: acceptedResult()}
	svc, store := newTestService(t, gw)

	sim := NewSimulator(time.Millisecond)
	sim.SetLogger(quietLogger())
	t.Cleanup(sim.Shutdown)
	svc.EnableSimulation(sim, "0700000000", NewCallbackService(store, nil))

	res, err := svc.Initiate(context.Background(), validInput())
	require.NoError(t, err)
	require.Nil(t, res.Task)
	require.Equal(t, 0, sim.Pending())
}
