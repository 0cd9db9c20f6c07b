package payments

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func validInput() InitiateInput {
	return InitiateInput{
		OrderID:    "ORD-1",
		Amount:     decimal.NewFromInt(50000),
		Currency:   "TZS",
		BuyerEmail: "x@y.com",
		BuyerName:  "X",
		BuyerPhone: "0712345678",
	}
}

func invalidFields(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Fields
}

func TestValidateAccepts(t *testing.T) {
	require.NoError(t, Validate(validInput()))
}

func TestValidateAmountBoundaries(t *testing.T) {
	for _, amt := range []int64{1, MaxAmount} {
		in := validInput()
		in.Amount = decimal.NewFromInt(amt)
		require.NoError(t, Validate(in), "amount %d", amt)
	}
	for _, amt := range []int64{0, -5, MaxAmount + 1, 2_000_000} {
		in := validInput()
		in.Amount = decimal.NewFromInt(amt)
		fields := invalidFields(t, Validate(in))
		require.Contains(t, fields, "amount", "amount %d", amt)
	}
}

func TestValidateAmountIsExact(t *testing.T) {
	for _, amt := range []string{"0.01", "999999.99", "1000000.00", "12.50"} {
		in := validInput()
		in.Amount = decimal.RequireFromString(amt)
		require.NoError(t, Validate(in), "amount %s", amt)
	}
	for _, amt := range []string{"1000000.00000000001", "1000000.01", "0.001", "10.125", "0.00"} {
		in := validInput()
		in.Amount = decimal.RequireFromString(amt)
		fields := invalidFields(t, Validate(in))
		require.Contains(t, fields, "amount", "amount %s", amt)
	}
}

func TestValidatePhone(t *testing.T) {
	in := validInput()
	in.BuyerPhone = "0712345678"
	require.NoError(t, Validate(in))

	for _, phone := range []string{"12345678", "07123456789", "0612345678", "07abcdefgh", ""} {
		in := validInput()
		in.BuyerPhone = phone
		fields := invalidFields(t, Validate(in))
		require.Contains(t, fields, "buyerPhone", "phone %q", phone)
	}
}

func TestValidateEmail(t *testing.T) {
	in := validInput()
	in.BuyerEmail = "a@b.com"
	require.NoError(t, Validate(in))

	for _, email := range []string{"a@b", "ab.com", "a b@c.com", ""} {
		in := validInput()
		in.BuyerEmail = email
		fields := invalidFields(t, Validate(in))
		require.Contains(t, fields, "buyerEmail", "email %q", email)
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	in := InitiateInput{Amount: decimal.Zero}
	fields := invalidFields(t, Validate(in))
	for _, f := range []string{"orderId", "amount", "currency", "buyerEmail", "buyerName", "buyerPhone"} {
		require.Contains(t, fields, f)
	}
}

func TestNormalize(t *testing.T) {
	in := InitiateInput{OrderID: " ORD-9 ", Currency: "tzs", BuyerPhone: " 0712345678 "}
	in.Normalize()
	require.Equal(t, "ORD-9", in.OrderID)
	require.Equal(t, "TZS", in.Currency)
	require.Equal(t, "0712345678", in.BuyerPhone)
}
