package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_UnmarshalNumeric(t *testing.T) {
	var o struct {
		Status OrderStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":2}`), &o))
	assert.Equal(t, OrderStatusShipped, o.Status)
}

func TestOrderStatus_UnmarshalLabel(t *testing.T) {
	var o struct {
		Status OrderStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"cancelled"}`), &o))
	assert.Equal(t, OrderStatusCancelled, o.Status)
}

func TestOrderStatus_UnknownValues(t *testing.T) {
	assert.Equal(t, OrderStatusUnknown, OrderStatusFromCode(9))
	assert.Equal(t, OrderStatusUnknown, ParseOrderStatus("lost"))
	assert.Equal(t, -1, OrderStatusUnknown.Code())
}

func TestOrderStatus_MarshalsLabel(t *testing.T) {
	data, err := json.Marshal(struct {
		Status OrderStatus `json:"status"`
	}{OrderStatusProcessing})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Processing"}`, string(data))
}

func TestUpdateOrderStatusRequest_MarshalsCode(t *testing.T) {
	data, err := json.Marshal(UpdateOrderStatusRequest{Status: OrderStatusCode(OrderStatusDelivered)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":3}`, string(data))

	_, err = json.Marshal(UpdateOrderStatusRequest{Status: OrderStatusCode(OrderStatusUnknown)})
	assert.Error(t, err)
}

func TestParseOrderStatus_Code(t *testing.T) {
	assert.Equal(t, OrderStatusPending, ParseOrderStatus("0"))
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
}
