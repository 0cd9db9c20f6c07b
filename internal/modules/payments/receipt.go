package payments

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"paybridge.app/app/internal/mailer"
)

// ReceiptNotifier emails the donor once a payment completes. Sending runs in
// the background and failures are only logged.
type ReceiptNotifier struct {
	mail     mailer.Service
	from     string
	fromName string
	timeout  time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewReceiptNotifier(m mailer.Service, from, fromName string) *ReceiptNotifier {
	return &ReceiptNotifier{
		mail:     m,
		from:     from,
		fromName: fromName,
		timeout:  15 * time.Second,
		logger:   slog.Default(),
	}
}

func (n *ReceiptNotifier) SetLogger(logger *slog.Logger) {
	n.logger = logger
}

func (n *ReceiptNotifier) PaymentCompleted(ctx context.Context, p Payment) {
	if p.BuyerEmail == "" {
		return
	}
	e := receiptEmail(p, n.from, n.fromName)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.logger.Warn("receipt skipped during shutdown", "order_id", p.OrderID)
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()
		if err := n.mail.Send(sendCtx, e); err != nil {
			n.logger.Error("receipt email failed", "order_id", p.OrderID, "err", err)
			return
		}
		n.logger.Info("receipt email sent", "order_id", p.OrderID)
	}()
}

// Close stops accepting receipts and waits for those already started.
func (n *ReceiptNotifier) Close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.wg.Wait()
}

// Wait blocks until every receipt started so far has been handed off.
func (n *ReceiptNotifier) Wait() {
	n.wg.Wait()
}

func receiptEmail(p Payment, from, fromName string) mailer.Email {
	amount := p.Amount.StringFixed(2) + " " + p.Currency
	subject := fmt.Sprintf("Payment received - order %s", p.OrderID)

	text := fmt.Sprintf("Hello %s,\n\nWe received your payment of %s for order %s.\n\nThank you for your support!\n",
		p.BuyerName, amount, p.OrderID)

	body := fmt.Sprintf(`<html>
  <body style="font-family: sans-serif;">
    <h2>Payment received</h2>
    <p>Hello %s,</p>
    <p>We received your payment.</p>
    <p><strong>Order:</strong> %s</p>
    <p><strong>Amount:</strong> %s</p>
    <p>Thank you for your support!</p>
  </body>
</html>
`, html.EscapeString(p.BuyerName), html.EscapeString(p.OrderID), html.EscapeString(amount))

	return mailer.Email{
		FromName: fromName,
		From:     from,
		To:       []string{p.BuyerEmail},
		Subject:  subject,
		TextBody: text,
		HTMLBody: body,
		Headers:  map[string]string{"X-Order-ID": p.OrderID},
	}
}
