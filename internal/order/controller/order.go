package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/calegray/storefront/entity"
	"github.com/calegray/storefront/internal/common"
	"github.com/calegray/storefront/internal/config"
	inErrors "github.com/calegray/storefront/internal/errors"
	inHttp "github.com/calegray/storefront/internal/http"
	"github.com/calegray/storefront/internal/log"
	"github.com/calegray/storefront/internal/middleware"
	"github.com/calegray/storefront/internal/order/request"
	"github.com/calegray/storefront/internal/order/service"
	inOtel "github.com/calegray/storefront/internal/otel"
)

var tracer = otel.Tracer("github.com/calegray/storefront/internal/order/controller")

type OrderController struct {
	service *service.OrderService
}

func AttachOrderController(
	router *mux.Router,
	svc *service.OrderService,
	cfg config.Application,
) {
	controller := OrderController{service: svc}

	r := router.PathPrefix("/orders").Subrouter()
	r.Use(middleware.Auth(cfg))
	r.HandleFunc("", controller.FindOrders).Methods(http.MethodGet)
	r.HandleFunc("/checkout", controller.Checkout).Methods(http.MethodPost)
	r.HandleFunc("/{orderId}", controller.FindOrderByID).Methods(http.MethodGet)
	r.HandleFunc("/{orderId}/capture", controller.Capture).Methods(http.MethodPost)
	r.HandleFunc("/{orderId}/status", controller.UpdateStatus).Methods(http.MethodPut)
	r.HandleFunc("/{orderId}/cancel", controller.Cancel).Methods(http.MethodPut)
}

func orderStatusCode(err error) int {
	switch {
	case errors.As(err, &entity.IllegalTransitionError{}):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (t OrderController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "OrderController Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController Checkout").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "getting userId from token").Logger()
	uid, err := common.UserIDFromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.Checkout{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "checking out").
		Str(log.KeyUserID, uid).
		Logger()
	logger.Info().Msg("checking out")
	c = logger.WithContext(c)
	order, err := t.service.Checkout(c, uid, entity.BillingInfo{
		FirstName: reqBody.FirstName,
		LastName:  reqBody.LastName,
		Username:  reqBody.Username,
		Email:     reqBody.Email,
		Address:   reqBody.Address,
		Address2:  reqBody.Address2,
		Country:   reqBody.Country,
		State:     reqBody.State,
		Zip:       reqBody.Zip,
	})
	if err != nil {
		statusCode := orderStatusCode(err)
		err = fmt.Errorf("failed checking out with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Str(log.KeyOrderID, order.ID).Msg("checked out")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "order created",
		"data": map[string]interface{}{
			"order": order,
		},
	})
}

func (t OrderController) Capture(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "OrderController Capture")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController Capture").
		Logger()

	orderID := mux.Vars(r)["orderId"]

	logger = logger.With().
		Str(log.KeyProcess, "capturing order").
		Str(log.KeyOrderID, orderID).
		Logger()
	logger.Info().Msg("capturing order")
	c = logger.WithContext(c)
	order, err := t.service.Capture(c, orderID)
	if err != nil {
		statusCode := orderStatusCode(err)
		err = fmt.Errorf("failed capturing order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("captured order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "order captured",
		"data": map[string]interface{}{
			"order": order,
		},
	})
}

func (t OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "OrderController UpdateStatus")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController UpdateStatus").
		Logger()

	orderID := mux.Vars(r)["orderId"]

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.UpdateStatus{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	status := entity.OrderStatus(reqBody.Status)
	if !status.Valid() {
		err := fmt.Errorf("unknown order status=%s", reqBody.Status)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "updating order status").
		Str(log.KeyOrderID, orderID).
		Str(log.KeyOrderStatus, reqBody.Status).
		Logger()
	logger.Info().Msg("updating order status")
	c = logger.WithContext(c)
	order, err := t.service.UpdateStatus(c, orderID, status)
	if err != nil {
		statusCode := orderStatusCode(err)
		err = fmt.Errorf("failed updating order status with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("updated order status")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "order status updated",
		"data": map[string]interface{}{
			"order": order,
		},
	})
}

func (t OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "OrderController Cancel")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController Cancel").
		Logger()

	orderID := mux.Vars(r)["orderId"]

	logger = logger.With().
		Str(log.KeyProcess, "canceling order").
		Str(log.KeyOrderID, orderID).
		Logger()
	logger.Info().Msg("canceling order")
	c = logger.WithContext(c)
	order, err := t.service.Cancel(c, orderID)
	if err != nil {
		statusCode := orderStatusCode(err)
		err = fmt.Errorf("failed canceling order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("canceled order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "order canceled",
		"data": map[string]interface{}{
			"order": order,
		},
	})
}

func (t OrderController) FindOrders(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "OrderController FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrders").
		Logger()

	if common.RoleFromContext(c) != entity.RoleAdmin {
		inOtel.RecordError(inErrors.ErrForbidden, span)
		logger.Error().Err(inErrors.ErrForbidden).Msg(inErrors.ErrForbidden.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusForbidden,
			"message":    inErrors.ErrForbidden.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding orders").Logger()
	logger.Info().Msg("finding orders")
	c = logger.WithContext(c)
	orders, err := t.service.FindOrders(c)
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Int("count", len(orders)).Msg("found orders")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "orders found",
		"data": map[string]interface{}{
			"orders": orders,
		},
	})
}

func (t OrderController) FindOrderByID(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "OrderController FindOrderByID")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrderByID").
		Logger()

	orderID := mux.Vars(r)["orderId"]

	logger = logger.With().
		Str(log.KeyProcess, "finding order").
		Str(log.KeyOrderID, orderID).
		Logger()
	logger.Info().Msg("finding order")
	c = logger.WithContext(c)
	order, err := t.service.FindOrderByID(c, orderID)
	if err != nil {
		statusCode := orderStatusCode(err)
		err = fmt.Errorf("failed finding order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}

	uid, _ := common.UserIDFromContext(c)
	if order.UserID != uid && common.RoleFromContext(c) != entity.RoleAdmin {
		inOtel.RecordError(inErrors.ErrForbidden, span)
		logger.Error().Err(inErrors.ErrForbidden).Msg(inErrors.ErrForbidden.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusForbidden,
			"message":    inErrors.ErrForbidden.Error(),
		})
		return
	}
	logger.Info().Msg("found order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "order found",
		"data": map[string]interface{}{
			"order": order,
		},
	})
}
