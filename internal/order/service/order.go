package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/calegray/storefront/entity"
	"github.com/calegray/storefront/internal/cart/reconcile"
	cartService "github.com/calegray/storefront/internal/cart/service"
	"github.com/calegray/storefront/internal/docstore"
	inErrors "github.com/calegray/storefront/internal/errors"
	"github.com/calegray/storefront/internal/log"
	inOtel "github.com/calegray/storefront/internal/otel"
)

var tracer = otel.Tracer("github.com/calegray/storefront/internal/order/service")

// PaymentClient is the slice of the capture provider the order flow
// needs.
type PaymentClient interface {
	CreateOrder(c context.Context, value string) (string, error)
	Capture(c context.Context, providerOrderID string) (string, bool, error)
}

// OrderEvent is the record published to the order-events topic on
// creation and on every status change.
type OrderEvent struct {
	OrderID    string             `json:"orderId"`
	UserID     string             `json:"userId"`
	Status     entity.OrderStatus `json:"status"`
	OccurredAt time.Time          `json:"occurredAt"`
}

type OrderService struct {
	store   docstore.Store
	carts   cartService.CartService
	payment PaymentClient
	writer  *kafka.Writer
}

func NewOrderService(
	store docstore.Store,
	carts cartService.CartService,
	payment PaymentClient,
	writer *kafka.Writer,
) OrderService {
	return OrderService{store: store, carts: carts, payment: payment, writer: writer}
}

// publishEvent is best-effort; a broker failure never fails the order
// write that already happened.
func (s OrderService) publishEvent(c context.Context, order entity.Order) {
	if s.writer == nil {
		return
	}
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService publishEvent").
		Str(log.KeyOrderID, order.ID).
		Str(log.KeyOrderStatus, string(order.Status)).
		Logger()

	value, err := json.Marshal(OrderEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		OccurredAt: time.Now(),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed marshaling order event")
		return
	}
	if err := s.writer.WriteMessages(c, kafka.Message{Key: []byte(order.ID), Value: value}); err != nil {
		logger.Warn().Err(err).Msg("failed publishing order event")
		return
	}
	logger.Info().Msg("published order event")
}

// Checkout snapshots the caller's cart into a Pending order, registers
// the provider payment order with the two-decimal subtotal, then clears
// the cart.
func (s OrderService) Checkout(
	c context.Context,
	uid string,
	billing entity.BillingInfo,
) (entity.Order, error) {
	c, span := tracer.Start(c, "OrderService Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService Checkout").
		Str(log.KeyUserID, uid).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "snapshotting cart").Logger()
	c = logger.WithContext(c)
	owner := cartService.UserOwner(uid)
	cart, err := s.carts.FindCart(c, owner)
	if err != nil {
		inOtel.RecordError(err, span)
		return entity.Order{}, err
	}
	if len(cart.Items) == 0 {
		inOtel.RecordError(inErrors.ErrEmptyCart, span)
		logger.Error().Err(inErrors.ErrEmptyCart).Msg(inErrors.ErrEmptyCart.Error())
		return entity.Order{}, inErrors.ErrEmptyCart
	}

	items := make([]entity.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, entity.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	subtotal := reconcile.Subtotal(cart)

	now := time.Now()
	order := entity.Order{
		ID:          uuid.NewString(),
		UserID:      uid,
		Items:       items,
		Status:      entity.OrderPending,
		BillingInfo: billing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	logger = logger.With().
		Str(log.KeyOrderID, order.ID).
		Str(log.KeySubtotal, subtotal.StringFixed(2)).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "creating provider order").Logger()
	logger.Info().Msg("creating provider order")
	c = logger.WithContext(c)
	providerOrderID, err := s.payment.CreateOrder(c, subtotal.StringFixed(2))
	if err != nil {
		err = fmt.Errorf("failed creating provider order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}
	order.ProviderOrderID = providerOrderID
	logger.Info().Msg("created provider order")

	logger = logger.With().Str(log.KeyProcess, "inserting order").Logger()
	logger.Info().Msg("inserting order")
	if err := s.store.Set(c, docstore.CollectionOrders, order.ID, order); err != nil {
		err = fmt.Errorf("failed inserting order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}
	logger.Info().Msg("inserted order")

	logger = logger.With().Str(log.KeyProcess, "clearing cart").Logger()
	logger.Info().Msg("clearing cart")
	if err := s.carts.Clear(c, owner); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}
	logger.Info().Msg("cleared cart")

	s.publishEvent(c, order)
	return order, nil
}

func (s OrderService) findOrder(c context.Context, orderID string) (entity.Order, error) {
	order := entity.Order{}
	err := docstore.GetAs(c, s.store, docstore.CollectionOrders, orderID, &order)
	if errors.Is(err, docstore.ErrNotFound) {
		return entity.Order{}, inErrors.ErrOrderNotFound
	}
	if err != nil {
		return entity.Order{}, fmt.Errorf("failed finding order with error=%w", err)
	}
	return order, nil
}

// Capture finalizes the provider payment and completes the order,
// recording the payer name the provider returned.
func (s OrderService) Capture(c context.Context, orderID string) (entity.Order, error) {
	c, span := tracer.Start(c, "OrderService Capture")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService Capture").
		Str(log.KeyOrderID, orderID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	order, err := s.findOrder(c, orderID)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "capturing provider order").Logger()
	logger.Info().Msg("capturing provider order")
	c = logger.WithContext(c)
	payerName, completed, err := s.payment.Capture(c, order.ProviderOrderID)
	if err != nil {
		err = fmt.Errorf("failed capturing provider order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}
	if !completed {
		err = fmt.Errorf("provider capture did not complete for orderId=%s", orderID)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "completing order").Logger()
	if err := order.Transition(entity.OrderCompleted); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}
	order.PayerName = payerName

	logger.Info().Msg("updating order")
	if err := s.store.Set(c, docstore.CollectionOrders, order.ID, order); err != nil {
		err = fmt.Errorf("failed updating order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}
	logger.Info().Msg("completed order")

	s.publishEvent(c, order)
	return order, nil
}

// UpdateStatus applies a transition from the legal-transition table;
// illegal moves fail with IllegalTransitionError.
func (s OrderService) UpdateStatus(
	c context.Context,
	orderID string,
	to entity.OrderStatus,
) (entity.Order, error) {
	c, span := tracer.Start(c, "OrderService UpdateStatus")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService UpdateStatus").
		Str(log.KeyOrderID, orderID).
		Str(log.KeyOrderStatus, string(to)).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	order, err := s.findOrder(c, orderID)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "transitioning order").Logger()
	if err := order.Transition(to); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}

	logger.Info().Msg("updating order")
	if err := s.store.Set(c, docstore.CollectionOrders, order.ID, order); err != nil {
		err = fmt.Errorf("failed updating order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}
	logger.Info().Msg("updated order")

	s.publishEvent(c, order)
	return order, nil
}

func (s OrderService) Cancel(c context.Context, orderID string) (entity.Order, error) {
	return s.UpdateStatus(c, orderID, entity.OrderCanceled)
}

func (s OrderService) FindOrders(c context.Context) ([]entity.Order, error) {
	c, span := tracer.Start(c, "OrderService FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrders").
		Str(log.KeyProcess, "finding orders").
		Logger()

	logger.Info().Msg("finding orders")
	raws, err := s.store.All(c, docstore.CollectionOrders)
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	orders := make([]entity.Order, 0, len(raws))
	for _, raw := range raws {
		order := entity.Order{}
		if err := json.Unmarshal(raw, &order); err != nil {
			err = fmt.Errorf("failed decoding order document with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		orders = append(orders, order)
	}
	logger.Info().Int("count", len(orders)).Msg("found orders")

	return orders, nil
}

func (s OrderService) FindOrderByID(c context.Context, orderID string) (entity.Order, error) {
	c, span := tracer.Start(c, "OrderService FindOrderByID")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrderByID").
		Str(log.KeyOrderID, orderID).
		Str(log.KeyProcess, "finding order").
		Logger()

	logger.Info().Msg("finding order")
	order, err := s.findOrder(c, orderID)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Order{}, err
	}
	logger.Info().Msg("found order")

	return order, nil
}
