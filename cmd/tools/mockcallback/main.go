// Command mockcallback posts a signed payment callback to a running server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"paybridge.app/app/internal/modules/payments"
)

type options struct {
	url       string
	secret    string
	reference string
	paymentID string
	amount    string
	status    string
	dryRun    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := options{}
	cmd := &cobra.Command{
		Use:   "mockcallback",
		Short: "Send a gateway-style payment callback",
		Long: `Build a callback body for an order and POST it to the callback endpoint.

When a secret is given (or CALLBACK_SIGNING_SECRET is set) the body carries
the HMAC signature the server expects.

Examples:
  mockcallback --reference ORD-1 --status success
  mockcallback --reference ORD-1 --status failed --dry-run`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.url, "url", "http://localhost:8080/api/payment/callback", "callback URL")
	f.StringVar(&o.secret, "secret", os.Getenv("CALLBACK_SIGNING_SECRET"), "signing secret")
	f.StringVar(&o.reference, "reference", "", "order id the callback refers to")
	f.StringVar(&o.paymentID, "payment-id", "", "gateway payment id (random when empty)")
	f.StringVar(&o.amount, "amount", "1000", "amount")
	f.StringVar(&o.status, "status", "success", "payment status (success, failed, ...)")
	f.BoolVar(&o.dryRun, "dry-run", false, "print the body without sending it")
	_ = cmd.MarkFlagRequired("reference")

	return cmd
}

func buildBody(o options) ([]byte, error) {
	in := payments.CallbackInput{
		PaymentID: o.paymentID,
		Reference: o.reference,
		Amount:    payments.FlexString(o.amount),
		Status:    o.status,
	}
	if in.PaymentID == "" {
		in.PaymentID = "MOCK-" + uuid.NewString()[:8]
	}
	if o.secret != "" {
		in.Signature = payments.Sign(o.secret, in)
	}
	return json.Marshal(in)
}

func run(out io.Writer, o options) error {
	body, err := buildBody(o)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Body: %s\n", body)

	if o.dryRun {
		fmt.Fprintln(out, "[DRY RUN] Not sending request")
		return nil
	}

	fmt.Fprintf(out, "Sending to %s...\n", o.url)
	req, err := http.NewRequest(http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send callback: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Fprintf(out, "Status: %d\n", resp.StatusCode)
	fmt.Fprintf(out, "Response: %s\n", respBody)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("callback rejected with status %d", resp.StatusCode)
	}
	return nil
}
