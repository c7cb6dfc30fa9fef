package paymob

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"
)

// Callback is the body Paymob posts to the transaction processed callback.
type Callback struct {
	Type string      `json:"type"`
	Obj  Transaction `json:"obj"`
}

type Transaction struct {
	ID                   int64  `json:"id"`
	Pending              bool   `json:"pending"`
	AmountCents          int64  `json:"amount_cents"`
	Success              bool   `json:"success"`
	IsAuth               bool   `json:"is_auth"`
	IsCapture            bool   `json:"is_capture"`
	IsStandalonePayment  bool   `json:"is_standalone_payment"`
	IsVoided             bool   `json:"is_voided"`
	IsRefunded           bool   `json:"is_refunded"`
	Is3DSecure           bool   `json:"is_3d_secure"`
	IntegrationID        int64  `json:"integration_id"`
	HasParentTransaction bool   `json:"has_parent_transaction"`
	ErrorOccured         bool   `json:"error_occured"`
	Owner                int64  `json:"owner"`
	CreatedAt            string `json:"created_at"`
	Currency             string `json:"currency"`
	Order                struct {
		ID              int64  `json:"id"`
		MerchantOrderID string `json:"merchant_order_id"`
	} `json:"order"`
	SourceData struct {
		Pan     string `json:"pan"`
		Type    string `json:"type"`
		SubType string `json:"sub_type"`
	} `json:"source_data"`
}

// HMACMessage concatenates the signed fields in Paymob's fixed order.
func (t Transaction) HMACMessage() string {
	fields := []string{
		strconv.FormatInt(t.AmountCents, 10),
		t.CreatedAt,
		t.Currency,
		strconv.FormatBool(t.ErrorOccured),
		strconv.FormatBool(t.HasParentTransaction),
		strconv.FormatInt(t.ID, 10),
		strconv.FormatInt(t.IntegrationID, 10),
		strconv.FormatBool(t.Is3DSecure),
		strconv.FormatBool(t.IsAuth),
		strconv.FormatBool(t.IsCapture),
		strconv.FormatBool(t.IsRefunded),
		strconv.FormatBool(t.IsStandalonePayment),
		strconv.FormatBool(t.IsVoided),
		strconv.FormatInt(t.Order.ID, 10),
		strconv.FormatInt(t.Owner, 10),
		strconv.FormatBool(t.Pending),
		t.SourceData.Pan,
		t.SourceData.SubType,
		t.SourceData.Type,
		strconv.FormatBool(t.Success),
	}
	return strings.Join(fields, "")
}

func Sign(secret string, t Transaction) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(t.HMACMessage()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the provided hex signature in constant time.
func Verify(secret string, t Transaction, provided string) bool {
	if secret == "" || provided == "" {
		return false
	}
	want, err := hex.DecodeString(Sign(secret, t))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(provided)))
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}
