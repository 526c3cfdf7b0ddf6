package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from  OrderStatus
		to    OrderStatus
		legal bool
	}{
		{from: OrderPending, to: OrderCanceled, legal: true},
		{from: OrderPending, to: OrderCompleted, legal: true},
		{from: OrderPending, to: OrderPending, legal: false},
		{from: OrderCanceled, to: OrderPending, legal: false},
		{from: OrderCanceled, to: OrderCompleted, legal: false},
		{from: OrderCanceled, to: OrderCanceled, legal: false},
		{from: OrderCompleted, to: OrderPending, legal: false},
		{from: OrderCompleted, to: OrderCanceled, legal: false},
		{from: OrderCompleted, to: OrderCompleted, legal: false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+" to "+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.legal, tt.from.CanTransition(tt.to))
		})
	}
}

func TestTransitionLeavesOrderUntouchedOnIllegalMove(t *testing.T) {
	order := Order{ID: "o1", Status: OrderCompleted}

	err := order.Transition(OrderCanceled)

	transitionErr := IllegalTransitionError{}
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, OrderCompleted, transitionErr.From)
	assert.Equal(t, OrderCanceled, transitionErr.To)
	assert.Equal(t, OrderCompleted, order.Status)
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderPending.Valid())
	assert.True(t, OrderCanceled.Valid())
	assert.True(t, OrderCompleted.Valid())
	assert.False(t, OrderStatus("Shipped").Valid())
}
