package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Field is one form field of an outbound request. List fields are submitted
// as repeated "name[]" inputs.
type Field struct {
	Name   string
	Values []string
	List   bool
}

// PaymentRequest is the signed payload submitted to the hosted payment page.
type PaymentRequest struct {
	Operation       string
	MerchantID      string
	Amount          decimal.Decimal
	OrderReference  string
	Currency        string
	Description     string
	ApproveURL      string
	DeclineURL      string
	CancelURL       string
	CallbackURL     string
	Language        string
	ClientFirstName string
	ClientLastName  string
	Email           string
	Phone           string
	ProductNames    []string
	ProductPrices   []string
	ProductCounts   []string
	Signature       string
}

// Fields returns the request as ordered form fields. Empty scalars and empty
// lists are left out.
func (r PaymentRequest) Fields() []Field {
	scalars := []struct{ name, value string }{
		{"operation", r.Operation},
		{"merchant_id", r.MerchantID},
		{"amount", r.Amount.String()},
		{"order_id", r.OrderReference},
		{"currency_iso", r.Currency},
		{"description", r.Description},
		{"approve_url", r.ApproveURL},
		{"decline_url", r.DeclineURL},
		{"cancel_url", r.CancelURL},
		{"callback_url", r.CallbackURL},
		{"language", r.Language},
		{"client_last_name", r.ClientLastName},
		{"client_first_name", r.ClientFirstName},
		{"email", r.Email},
		{"phone", r.Phone},
	}

	fields := make([]Field, 0, len(scalars)+4)
	for _, s := range scalars {
		if s.value == "" {
			continue
		}
		fields = append(fields, Field{Name: s.name, Values: []string{s.value}})
	}

	lists := []struct {
		name   string
		values []string
	}{
		{"product_name", r.ProductNames},
		{"product_price", r.ProductPrices},
		{"product_count", r.ProductCounts},
	}
	for _, l := range lists {
		if len(l.values) == 0 {
			continue
		}
		fields = append(fields, Field{Name: l.name, Values: l.values, List: true})
	}

	if r.Signature != "" {
		fields = append(fields, Field{Name: "signature", Values: []string{r.Signature}})
	}
	return fields
}

// Lookup returns the values of a request field by its wire name.
func (r PaymentRequest) Lookup(key string) ([]string, bool) {
	for _, f := range r.Fields() {
		if f.Name == key {
			return f.Values, true
		}
	}
	return nil, false
}

// CallbackNotification is the untrusted JSON body the processor posts to the
// callback URL. AmountText holds the amount as the processor signed it.
type CallbackNotification struct {
	MerchantAccount   string              `json:"merchantAccount"`
	OrderReference    string              `json:"orderReference"`
	Amount            decimal.NullDecimal `json:"amount"`
	AmountText        string              `json:"-"`
	Currency          string              `json:"currency"`
	TransactionStatus TransactionStatus   `json:"transactionStatus"`
	Type              OperationType       `json:"type"`
	TransactionID     string              `json:"transactionId"`
	MerchantSignature string              `json:"merchantSignature"`
	Reason            string              `json:"reason,omitempty"`
	ReasonCode        string              `json:"reasonCode,omitempty"`
}

// UnmarshalJSON decodes a callback body. Unsigned informational fields are
// read as text whatever their JSON type, and amount keeps its wire form.
func (n *CallbackNotification) UnmarshalJSON(data []byte) error {
	var raw struct {
		MerchantAccount   string            `json:"merchantAccount"`
		OrderReference    string            `json:"orderReference"`
		Amount            json.RawMessage   `json:"amount"`
		Currency          string            `json:"currency"`
		TransactionStatus TransactionStatus `json:"transactionStatus"`
		Type              OperationType     `json:"type"`
		TransactionID     json.RawMessage   `json:"transactionId"`
		MerchantSignature string            `json:"merchantSignature"`
		Reason            json.RawMessage   `json:"reason"`
		ReasonCode        json.RawMessage   `json:"reasonCode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = CallbackNotification{
		MerchantAccount:   raw.MerchantAccount,
		OrderReference:    raw.OrderReference,
		Currency:          raw.Currency,
		TransactionStatus: raw.TransactionStatus,
		Type:              raw.Type,
		MerchantSignature: raw.MerchantSignature,
	}
	n.TransactionID, _ = rawText(raw.TransactionID)
	n.Reason, _ = rawText(raw.Reason)
	n.ReasonCode, _ = rawText(raw.ReasonCode)
	n.AmountText, n.Amount = decodeAmount(raw.Amount)
	return nil
}

// decodeAmount returns the signing text and the parsed value of the amount.
// A quoted amount is signed verbatim; a JSON number is signed in its
// shortest decimal form ("100.00" becomes "100").
func decodeAmount(raw json.RawMessage) (string, decimal.NullDecimal) {
	text, quoted := rawText(raw)
	if text == "" {
		return "", decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return text, decimal.NullDecimal{}
	}
	if !quoted {
		text = d.String()
	}
	return text, decimal.NewNullDecimal(d)
}

// rawText returns a scalar JSON value as text and whether it was a string.
// null and absent values yield "".
func rawText(raw json.RawMessage) (string, bool) {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", false
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(b), false
}

// Lookup returns the values of a callback field by its wire name. Empty
// strings and a null or absent amount are reported as absent.
func (n CallbackNotification) Lookup(key string) ([]string, bool) {
	var v string
	switch key {
	case "merchantAccount":
		v = n.MerchantAccount
	case "orderReference":
		v = n.OrderReference
	case "amount":
		v = n.AmountText
		if v == "" && n.Amount.Valid {
			v = n.Amount.Decimal.String()
		}
	case "currency":
		v = n.Currency
	case "transactionStatus":
		v = string(n.TransactionStatus)
	case "type":
		v = string(n.Type)
	case "transactionId":
		v = n.TransactionID
	}
	if v == "" {
		return nil, false
	}
	return []string{v}, true
}
