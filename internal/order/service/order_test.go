package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/storefront/entity"
	cartService "github.com/calegray/storefront/internal/cart/service"
	"github.com/calegray/storefront/internal/docstore"
	inErrors "github.com/calegray/storefront/internal/errors"
)

type fakePayment struct {
	createdValue string
	createErr    error
	payerName    string
	completed    bool
	captureErr   error
	capturedID   string
}

func (f *fakePayment) CreateOrder(_ context.Context, value string) (string, error) {
	f.createdValue = value
	if f.createErr != nil {
		return "", f.createErr
	}
	return "prov-1", nil
}

func (f *fakePayment) Capture(_ context.Context, providerOrderID string) (string, bool, error) {
	f.capturedID = providerOrderID
	if f.captureErr != nil {
		return "", false, f.captureErr
	}
	return f.payerName, f.completed, nil
}

func newService(payment PaymentClient) (OrderService, cartService.CartService) {
	durable := docstore.NewMemoryStore()
	carts := cartService.NewCartService(durable, docstore.NewMemoryStore(), nil)
	return NewOrderService(durable, carts, payment, nil), carts
}

func seedCart(t *testing.T, carts cartService.CartService, uid string) {
	t.Helper()
	_, err := carts.AddItem(context.Background(), cartService.UserOwner(uid), entity.CartItem{
		ProductID:    "p1",
		ProductName:  "shirt",
		ProductPrice: decimal.RequireFromString("19.99"),
		Quantity:     3,
	})
	require.NoError(t, err)
}

func TestCheckoutSnapshotsCartAndClearsIt(t *testing.T) {
	payment := &fakePayment{}
	svc, carts := newService(payment)
	c := context.Background()
	seedCart(t, carts, "u1")

	order, err := svc.Checkout(c, "u1", entity.BillingInfo{FirstName: "Ada"})
	require.NoError(t, err)

	assert.Equal(t, entity.OrderPending, order.Status)
	assert.Equal(t, "u1", order.UserID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, entity.OrderItem{ProductID: "p1", Quantity: 3}, order.Items[0])
	assert.Equal(t, "prov-1", order.ProviderOrderID)
	assert.Equal(t, "59.97", payment.createdValue, "provider gets the two-decimal subtotal")

	cart, err := carts.FindCart(c, cartService.UserOwner("u1"))
	require.NoError(t, err)
	assert.Empty(t, cart.Items, "cart is cleared after the order snapshot")
}

func TestCheckoutEmptyCartFails(t *testing.T) {
	svc, _ := newService(&fakePayment{})

	_, err := svc.Checkout(context.Background(), "u1", entity.BillingInfo{})
	assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
}

func TestCheckoutProviderFailureLeavesCartIntact(t *testing.T) {
	payment := &fakePayment{createErr: errors.New("provider down")}
	svc, carts := newService(payment)
	c := context.Background()
	seedCart(t, carts, "u1")

	_, err := svc.Checkout(c, "u1", entity.BillingInfo{})
	require.Error(t, err)

	cart, err := carts.FindCart(c, cartService.UserOwner("u1"))
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1, "a failed provider call must not clear the cart")
}

func TestCaptureCompletesOrderAndRecordsPayer(t *testing.T) {
	payment := &fakePayment{payerName: "Ada Lovelace", completed: true}
	svc, carts := newService(payment)
	c := context.Background()
	seedCart(t, carts, "u1")

	order, err := svc.Checkout(c, "u1", entity.BillingInfo{})
	require.NoError(t, err)

	captured, err := svc.Capture(c, order.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.OrderCompleted, captured.Status)
	assert.Equal(t, "Ada Lovelace", captured.PayerName)
	assert.Equal(t, "prov-1", payment.capturedID)
}

func TestCaptureAbsentOrderReturnsNotFound(t *testing.T) {
	svc, _ := newService(&fakePayment{completed: true})

	_, err := svc.Capture(context.Background(), "missing")
	assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)
}

func TestCaptureOfCanceledOrderIsIllegal(t *testing.T) {
	payment := &fakePayment{completed: true}
	svc, carts := newService(payment)
	c := context.Background()
	seedCart(t, carts, "u1")

	order, err := svc.Checkout(c, "u1", entity.BillingInfo{})
	require.NoError(t, err)
	_, err = svc.Cancel(c, order.ID)
	require.NoError(t, err)

	_, err = svc.Capture(c, order.ID)
	transitionErr := entity.IllegalTransitionError{}
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, entity.OrderCanceled, transitionErr.From)
	assert.Equal(t, entity.OrderCompleted, transitionErr.To)
}

func TestUpdateStatusRejectsTransitionOutOfTerminalState(t *testing.T) {
	payment := &fakePayment{completed: true}
	svc, carts := newService(payment)
	c := context.Background()
	seedCart(t, carts, "u1")

	order, err := svc.Checkout(c, "u1", entity.BillingInfo{})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(c, order.ID, entity.OrderCompleted)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(c, order.ID, entity.OrderCanceled)
	transitionErr := entity.IllegalTransitionError{}
	assert.ErrorAs(t, err, &transitionErr)

	found, err := svc.FindOrderByID(c, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCompleted, found.Status, "a rejected transition leaves the order untouched")
}

func TestFindOrdersReturnsAll(t *testing.T) {
	payment := &fakePayment{}
	svc, carts := newService(payment)
	c := context.Background()

	for _, uid := range []string{"u1", "u2"} {
		seedCart(t, carts, uid)
		_, err := svc.Checkout(c, uid, entity.BillingInfo{})
		require.NoError(t, err)
	}

	orders, err := svc.FindOrders(c)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
