package payments

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chargeReq() ChargeRequest {
	return ChargeRequest{
		OrderID:    "ORD-1",
		Amount:     decimal.NewFromInt(50000),
		Currency:   "TZS",
		BuyerEmail: "x@y.com",
		BuyerName:  "X",
		BuyerPhone: "0712345678",
	}
}

func newZenoPay(t *testing.T, h http.HandlerFunc) *ZenoPayClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewZenoPayClient(ZenoPayConfig{BaseURL: srv.URL + "/", APIKey: "key-123", CallbackURL: "https://shop.test/api/payment/callback"})
	c.SetLogger(quietLogger())
	return c
}

func TestZenoPayAccepted(t *testing.T) {
	var got map[string]any
	c := newZenoPay(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, zenoPayChargePath, r.URL.Path)
		require.Equal(t, "key-123", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","message":"Request in progress","order_id":"ORD-1","payment_id":"PID-1","payment_url":"https://pay/x"}`))
	})

	res := c.Charge(context.Background(), chargeReq())
	require.Equal(t, GatewayAccepted, res.Outcome)
	require.Equal(t, "PID-1", res.PaymentID)
	require.Equal(t, "https://pay/x", res.PaymentURL)
	require.Equal(t, "Request in progress", res.Reason)
	require.JSONEq(t, `{"status":"success","message":"Request in progress","order_id":"ORD-1","payment_id":"PID-1","payment_url":"https://pay/x"}`, string(res.Raw))

	require.Equal(t, "ORD-1", got["order_id"])
	require.Equal(t, "0712345678", got["buyer_phone"])
	require.Equal(t, float64(50000), got["amount"])
	require.Equal(t, "https://shop.test/api/payment/callback", got["webhook_url"])
}

func TestZenoPayRejected(t *testing.T) {
	c := newZenoPay(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"Invalid phone"}`))
	})

	res := c.Charge(context.Background(), chargeReq())
	require.Equal(t, GatewayRejected, res.Outcome)
	require.Equal(t, "Invalid phone", res.Reason)
	require.NotEmpty(t, res.Raw)
}

func TestZenoPayServerError(t *testing.T) {
	c := newZenoPay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	})

	res := c.Charge(context.Background(), chargeReq())
	require.Equal(t, GatewayError, res.Outcome)
	require.Equal(t, http.StatusInternalServerError, res.HTTPStatus)
	require.JSONEq(t, `{"body":"upstream exploded"}`, string(res.Raw))
}

func TestZenoPayUnparseable(t *testing.T) {
	c := newZenoPay(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	})

	res := c.Charge(context.Background(), chargeReq())
	require.Equal(t, GatewayError, res.Outcome)
	require.Error(t, res.Cause)
}

func TestZenoPayTimeoutIsUnreachable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := NewZenoPayClient(ZenoPayConfig{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond})
	c.SetLogger(quietLogger())

	res := c.Charge(context.Background(), chargeReq())
	require.Equal(t, GatewayUnreachable, res.Outcome)
	require.Error(t, res.Cause)
}

func TestZenoPayConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewZenoPayClient(ZenoPayConfig{BaseURL: url, APIKey: "k"})
	c.SetLogger(quietLogger())
	res := c.Charge(context.Background(), chargeReq())
	require.Equal(t, GatewayUnreachable, res.Outcome)
}

func TestSandboxGateway(t *testing.T) {
	g := SandboxGateway{TestPhone: "0700000000"}

	req := chargeReq()
	res := g.Charge(context.Background(), req)
	require.Equal(t, GatewayRejected, res.Outcome)

	req.BuyerPhone = "0700000000"
	res = g.Charge(context.Background(), req)
	require.Equal(t, GatewayAccepted, res.Outcome)
	require.Equal(t, "SBX-ORD-1", res.PaymentID)
}
