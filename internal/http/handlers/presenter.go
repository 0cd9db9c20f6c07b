package handlers

import (
	"encoding/json"

	"gorm.io/datatypes"

	"paybridge.app/app/internal/modules/payments"
	"paybridge.app/app/pkg/view"
)

func PaymentView(p payments.Payment) view.Payment {
	return view.Payment{
		OrderID:         p.OrderID,
		Amount:          json.Number(p.Amount.String()),
		AmountDisplay:   view.Money(p.Amount, p.Currency),
		Currency:        p.Currency,
		BuyerEmail:      p.BuyerEmail,
		BuyerName:       p.BuyerName,
		BuyerPhone:      p.BuyerPhone,
		Status:          string(p.Status),
		GatewayResponse: rawJSON(p.GatewayResponse),
		CallbackPayload: rawJSON(p.CallbackPayload),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func PaymentViews(ps []payments.Payment) []view.Payment {
	out := make([]view.Payment, 0, len(ps))
	for _, p := range ps {
		out = append(out, PaymentView(p))
	}
	return out
}

func PaymentDetailView(d payments.PaymentDetail) view.PaymentDetail {
	out := view.PaymentDetail{
		Payment:   PaymentView(d.Payment),
		Callbacks: make([]view.CallbackEntry, 0, len(d.Callbacks)),
	}
	for _, cb := range d.Callbacks {
		out.Callbacks = append(out.Callbacks, view.CallbackEntry{
			ID:         cb.ID,
			PaymentID:  cb.PaymentID,
			Status:     cb.Status,
			Outcome:    string(cb.Outcome),
			Simulated:  cb.Simulated,
			Payload:    rawJSON(cb.PayloadJSON),
			ReceivedAt: cb.ReceivedAt,
		})
	}
	return out
}

func rawJSON(j datatypes.JSON) json.RawMessage {
	if len(j) == 0 {
		return nil
	}
	return json.RawMessage(j)
}

// JSONColumn converts an optional request field into a column value; absent
// and null both mean "leave unset".
func JSONColumn(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}
