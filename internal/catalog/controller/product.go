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
	"github.com/calegray/storefront/internal/catalog/request"
	"github.com/calegray/storefront/internal/catalog/service"
	"github.com/calegray/storefront/internal/common"
	"github.com/calegray/storefront/internal/config"
	inErrors "github.com/calegray/storefront/internal/errors"
	inHttp "github.com/calegray/storefront/internal/http"
	"github.com/calegray/storefront/internal/log"
	"github.com/calegray/storefront/internal/middleware"
	inOtel "github.com/calegray/storefront/internal/otel"
)

var tracer = otel.Tracer("github.com/calegray/storefront/internal/catalog/controller")

type CatalogController struct {
	service *service.CatalogService
}

func AttachCatalogController(
	router *mux.Router,
	svc *service.CatalogService,
	cfg config.Application,
) {
	controller := CatalogController{service: svc}

	r := router.PathPrefix("/products").Subrouter()
	r.HandleFunc("", controller.FindProducts).Methods(http.MethodGet)
	r.HandleFunc("/{productId}", controller.FindProductByID).Methods(http.MethodGet)

	admin := router.PathPrefix("/products").Subrouter()
	admin.Use(middleware.Auth(cfg))
	admin.HandleFunc("", controller.InsertProduct).Methods(http.MethodPost)
	admin.HandleFunc("/{productId}", controller.UpdateProduct).Methods(http.MethodPatch)
	admin.HandleFunc("/{productId}", controller.DeleteProduct).Methods(http.MethodDelete)
}

func (t CatalogController) FindProducts(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "CatalogController FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogController FindProducts").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding products").Logger()
	logger.Info().Msg("finding products")
	c = logger.WithContext(c)
	products, err := t.service.FindProducts(c)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Int("count", len(products)).Msg("found products")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "products found",
		"data": map[string]interface{}{
			"products": products,
		},
	})
}

func (t CatalogController) FindProductByID(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "CatalogController FindProductByID")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogController FindProductByID").
		Logger()

	productID := mux.Vars(r)["productId"]

	logger = logger.With().
		Str(log.KeyProcess, "finding product").
		Str(log.KeyProductID, productID).
		Logger()
	logger.Info().Msg("finding product")
	c = logger.WithContext(c)
	product, err := t.service.FindProductByID(c, productID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrProductNotFound) {
			statusCode = http.StatusNotFound
		}
		err = fmt.Errorf("failed finding product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("found product")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "product found",
		"data": map[string]interface{}{
			"product": product,
		},
	})
}

func (t CatalogController) InsertProduct(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "CatalogController InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogController InsertProduct").
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

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.CreateProduct{}
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
	err := validate.StructCtx(c, reqBody)
	if err == nil && !reqBody.Price.IsPositive() {
		err = fmt.Errorf("price must be greater than zero, got=%s", reqBody.Price)
	}
	if err != nil {
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

	logger = logger.With().Str(log.KeyProcess, "inserting product").Logger()
	logger.Info().Msg("inserting product")
	c = logger.WithContext(c)
	product, err := t.service.InsertProduct(c, reqBody)
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Str(log.KeyProductID, product.ID).Msg("inserted product")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "product created",
		"data": map[string]interface{}{
			"product": product,
		},
	})
}

func (t CatalogController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "CatalogController UpdateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogController UpdateProduct").
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

	productID := mux.Vars(r)["productId"]

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.UpdateProduct{}
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
	if reqBody.Price != nil && !reqBody.Price.IsPositive() {
		err := fmt.Errorf("price must be greater than zero, got=%s", reqBody.Price)
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
		Str(log.KeyProcess, "updating product").
		Str(log.KeyProductID, productID).
		Logger()
	logger.Info().Msg("updating product")
	c = logger.WithContext(c)
	product, err := t.service.UpdateProduct(c, productID, reqBody)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrProductNotFound) {
			statusCode = http.StatusNotFound
		}
		err = fmt.Errorf("failed updating product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("updated product")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "product updated",
		"data": map[string]interface{}{
			"product": product,
		},
	})
}

func (t CatalogController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "CatalogController DeleteProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogController DeleteProduct").
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

	productID := mux.Vars(r)["productId"]

	logger = logger.With().
		Str(log.KeyProcess, "deleting product").
		Str(log.KeyProductID, productID).
		Logger()
	logger.Info().Msg("deleting product")
	c = logger.WithContext(c)
	if err := t.service.DeleteProduct(c, productID); err != nil {
		err = fmt.Errorf("failed deleting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("deleted product")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "product deleted",
		"data": map[string]interface{}{
			"productId": productID,
		},
	})
}
