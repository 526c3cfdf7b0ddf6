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
	"github.com/calegray/storefront/internal/cart/request"
	"github.com/calegray/storefront/internal/cart/response"
	"github.com/calegray/storefront/internal/cart/service"
	"github.com/calegray/storefront/internal/common"
	inErrors "github.com/calegray/storefront/internal/errors"
	inHttp "github.com/calegray/storefront/internal/http"
	"github.com/calegray/storefront/internal/log"
	inOtel "github.com/calegray/storefront/internal/otel"
)

var tracer = otel.Tracer("github.com/calegray/storefront/internal/cart/controller")

type CartController struct {
	service *service.CartService
}

func AttachCartController(router *mux.Router, svc *service.CartService) {
	controller := CartController{service: svc}

	r := router.PathPrefix("/carts").Subrouter()
	r.HandleFunc("", controller.FindCart).Methods(http.MethodGet)
	r.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	r.HandleFunc("/items/{productId}", controller.SetQuantity).Methods(http.MethodPut)
	r.HandleFunc("/items/{productId}", controller.RemoveItem).Methods(http.MethodDelete)
	r.HandleFunc("/sync", controller.Sync).Methods(http.MethodPost)
}

// owner resolves the session's cart identity: the JWT subject when the
// request is authenticated, else the guest key from the X-Guest-Id
// header.
func owner(r *http.Request) service.Owner {
	if uid, err := common.UserIDFromContext(r.Context()); err == nil {
		return service.UserOwner(uid)
	}
	return service.GuestOwner(r.Header.Get(inHttp.HeaderGuestID))
}

func (t CartController) FindCart(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "CartController FindCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController FindCart").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding cart").Logger()
	logger.Info().Msg("finding cart")
	c = logger.WithContext(c)
	cart, err := t.service.FindCart(c, owner(r))
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("found cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "cart found",
		"data": map[string]interface{}{
			"cart": response.FromEntity(cart),
		},
	})
}

func (t CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddItem").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.AddCartItem{}
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
		Str(log.KeyProcess, "adding item").
		Str(log.KeyProductID, reqBody.ProductID).
		Logger()
	logger.Info().Msg("adding item")
	c = logger.WithContext(c)
	cart, err := t.service.AddItem(c, owner(r), entity.CartItem{
		ProductID:    reqBody.ProductID,
		ProductName:  reqBody.ProductName,
		ProductPrice: reqBody.ProductPrice,
		ProductImage: reqBody.ProductImage,
		Quantity:     reqBody.Quantity,
	})
	if err != nil {
		err = fmt.Errorf("failed adding item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("added item")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "item added to cart",
		"data": map[string]interface{}{
			"cart": response.FromEntity(cart),
		},
	})
}

func (t CartController) SetQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "CartController SetQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController SetQuantity").
		Logger()

	productID := mux.Vars(r)["productId"]

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.UpdateQuantity{}
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
		Str(log.KeyProcess, "updating quantity").
		Str(log.KeyProductID, productID).
		Int(log.KeyQuantity, reqBody.Quantity).
		Logger()
	logger.Info().Msg("updating quantity")
	c = logger.WithContext(c)
	cart, err := t.service.SetQuantity(c, owner(r), productID, reqBody.Quantity)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrCartItemNotFound) {
			statusCode = http.StatusNotFound
		}
		err = fmt.Errorf("failed updating quantity with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("updated quantity")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "quantity updated",
		"data": map[string]interface{}{
			"cart": response.FromEntity(cart),
		},
	})
}

func (t CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RemoveItem").
		Logger()

	productID := mux.Vars(r)["productId"]

	logger = logger.With().
		Str(log.KeyProcess, "removing item").
		Str(log.KeyProductID, productID).
		Logger()
	logger.Info().Msg("removing item")
	c = logger.WithContext(c)
	cart, err := t.service.RemoveItem(c, owner(r), productID)
	if err != nil {
		err = fmt.Errorf("failed removing item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("removed item")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "item removed from cart",
		"data": map[string]interface{}{
			"cart": response.FromEntity(cart),
		},
	})
}

func (t CartController) Sync(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "CartController Sync")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController Sync").
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

	guestKey := r.Header.Get(inHttp.HeaderGuestID)

	logger = logger.With().
		Str(log.KeyProcess, "syncing guest cart").
		Str(log.KeyGuestKey, guestKey).
		Str(log.KeyUserID, uid).
		Logger()
	logger.Info().Msg("syncing guest cart")
	c = logger.WithContext(c)
	cart, err := t.service.SyncGuestCart(c, guestKey, uid)
	if err != nil {
		err = fmt.Errorf("failed syncing guest cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("synced guest cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "guest cart merged",
		"data": map[string]interface{}{
			"cart": response.FromEntity(cart),
		},
	})
}
