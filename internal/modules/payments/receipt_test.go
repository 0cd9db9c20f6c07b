package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"paybridge.app/app/internal/mailer"
)

func TestReceiptNotifierSends(t *testing.T) {
	m := &mailer.Mock{}
	n := NewReceiptNotifier(m, "no-reply@x.test", "Donations")
	n.SetLogger(quietLogger())

	p := samplePayment("ORD-1")
	p.BuyerName = "<Asha>"
	n.PaymentCompleted(context.Background(), p)
	n.Wait()

	require.Len(t, m.Messages(), 1)
	e := m.Messages()[0]
	require.Equal(t, []string{"x@y.com"}, e.To)
	require.Equal(t, "no-reply@x.test", e.From)
	require.Contains(t, e.Subject, "ORD-1")
	require.Contains(t, e.TextBody, "50000.00 TZS")
	require.Contains(t, e.HTMLBody, "&lt;Asha&gt;")
	require.Equal(t, "ORD-1", e.Headers["X-Order-ID"])
}

func TestReceiptNotifierSwallowsErrors(t *testing.T) {
	m := &mailer.Mock{Err: errors.New("smtp down")}
	n := NewReceiptNotifier(m, "no-reply@x.test", "")
	n.SetLogger(quietLogger())

	n.PaymentCompleted(context.Background(), samplePayment("ORD-1"))
	n.Wait()
	require.Len(t, m.Messages(), 1)

	p := samplePayment("ORD-2")
	p.BuyerEmail = ""
	n.PaymentCompleted(context.Background(), p)
	n.Wait()
	require.Len(t, m.Messages(), 1)
}

func TestReceiptNotifierCloseRefusesNewReceipts(t *testing.T) {
	m := &mailer.Mock{}
	n := NewReceiptNotifier(m, "no-reply@x.test", "")
	n.SetLogger(quietLogger())

	n.PaymentCompleted(context.Background(), samplePayment("ORD-1"))
	n.Close()
	require.Len(t, m.Messages(), 1)

	n.PaymentCompleted(context.Background(), samplePayment("ORD-2"))
	n.Wait()
	require.Len(t, m.Messages(), 1)
}
