package paymob

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCallback = `{
  "type": "TRANSACTION",
  "obj": {
    "id": 192036465,
    "pending": false,
    "amount_cents": 100000,
    "success": true,
    "is_auth": false,
    "is_capture": false,
    "is_standalone_payment": true,
    "is_voided": false,
    "is_refunded": false,
    "is_3d_secure": true,
    "integration_id": 4097558,
    "has_parent_transaction": false,
    "error_occured": false,
    "owner": 1833052,
    "created_at": "2024-06-13T11:33:44.592345",
    "currency": "EGP",
    "order": {"id": 217503754, "merchant_order_id": "20240613-x"},
    "source_data": {"pan": "2346", "type": "card", "sub_type": "MasterCard"}
  }
}`

func TestTransaction_HMACMessage(t *testing.T) {
	var cb Callback
	require.NoError(t, json.Unmarshal([]byte(sampleCallback), &cb))

	want := "100000" + "2024-06-13T11:33:44.592345" + "EGP" + "false" + "false" +
		"192036465" + "4097558" + "true" + "false" + "false" + "false" + "true" + "false" +
		"217503754" + "1833052" + "false" + "2346" + "MasterCard" + "card" + "true"
	assert.Equal(t, want, cb.Obj.HMACMessage())
}

func TestVerify(t *testing.T) {
	var cb Callback
	require.NoError(t, json.Unmarshal([]byte(sampleCallback), &cb))
	sig := Sign("s3cret", cb.Obj)

	assert.True(t, Verify("s3cret", cb.Obj, sig))
	assert.False(t, Verify("other", cb.Obj, sig))
	assert.False(t, Verify("s3cret", cb.Obj, ""))
	assert.False(t, Verify("s3cret", cb.Obj, "not-hex"))

	tampered := cb.Obj
	tampered.AmountCents = 1
	assert.False(t, Verify("s3cret", tampered, sig))
}
