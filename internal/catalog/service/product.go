package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/calegray/storefront/entity"
	"github.com/calegray/storefront/internal/catalog/request"
	"github.com/calegray/storefront/internal/docstore"
	inErrors "github.com/calegray/storefront/internal/errors"
	"github.com/calegray/storefront/internal/log"
	inOtel "github.com/calegray/storefront/internal/otel"
)

var tracer = otel.Tracer("github.com/calegray/storefront/internal/catalog/service")

const productsCacheKey = "products"

type CatalogService struct {
	store docstore.Store
	cache *redis.Client
}

func NewCatalogService(store docstore.Store, cache *redis.Client) CatalogService {
	return CatalogService{store: store, cache: cache}
}

func (s CatalogService) cachedProducts(c context.Context) ([]entity.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(c, productsCacheKey).Result()
	if err != nil {
		return nil, false
	}
	products := []entity.Product{}
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		return nil, false
	}
	return products, true
}

func (s CatalogService) fillCache(c context.Context, products []entity.Product) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := s.cache.Set(c, productsCacheKey, raw, time.Hour).Err(); err != nil {
		zerolog.Ctx(c).Warn().Err(err).Str(log.KeyCacheKey, productsCacheKey).
			Msg("failed inserting products to cache")
	}
}

func (s CatalogService) dropCache(c context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(c, productsCacheKey).Err(); err != nil {
		zerolog.Ctx(c).Warn().Err(err).Str(log.KeyCacheKey, productsCacheKey).
			Msg("failed deleting products from cache")
	}
}

func (s CatalogService) FindProducts(c context.Context) ([]entity.Product, error) {
	c, span := tracer.Start(c, "CatalogService FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogService FindProducts").
		Logger()

	if products, ok := s.cachedProducts(c); ok {
		logger.Info().Msg("found products in cache")
		return products, nil
	}

	logger = logger.With().Str(log.KeyProcess, "finding products in store").Logger()
	logger.Info().Msg("finding products in store")
	raws, err := s.store.All(c, docstore.CollectionProducts)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	products := make([]entity.Product, 0, len(raws))
	for _, raw := range raws {
		product := entity.Product{}
		if err := json.Unmarshal(raw, &product); err != nil {
			err = fmt.Errorf("failed decoding product document with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		products = append(products, product)
	}
	logger.Info().Int("count", len(products)).Msg("found products in store")

	s.fillCache(c, products)
	return products, nil
}

func (s CatalogService) FindProductByID(c context.Context, id string) (entity.Product, error) {
	c, span := tracer.Start(c, "CatalogService FindProductByID")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogService FindProductByID").
		Str(log.KeyProductID, id).
		Str(log.KeyProcess, "finding product").
		Logger()

	logger.Info().Msg("finding product")
	product := entity.Product{}
	err := docstore.GetAs(c, s.store, docstore.CollectionProducts, id, &product)
	if errors.Is(err, docstore.ErrNotFound) {
		inOtel.RecordError(inErrors.ErrProductNotFound, span)
		logger.Error().Err(err).Msg(inErrors.ErrProductNotFound.Error())
		return entity.Product{}, inErrors.ErrProductNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed finding product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Product{}, err
	}
	logger.Info().Msg("found product")

	return product, nil
}

// InsertProduct assigns the id server-side; callers never pick ids.
func (s CatalogService) InsertProduct(
	c context.Context,
	reqBody request.CreateProduct,
) (entity.Product, error) {
	c, span := tracer.Start(c, "CatalogService InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogService InsertProduct").
		Str(log.KeyProcess, "inserting product").
		Logger()

	now := time.Now()
	product := entity.Product{
		ID:           uuid.NewString(),
		Name:         reqBody.Name,
		Brand:        reqBody.Brand,
		Price:        reqBody.Price,
		Description:  reqBody.Description,
		Sku:          reqBody.Sku,
		Category:     reqBody.Category,
		SubCategory:  reqBody.SubCategory,
		SizeOptions:  reqBody.SizeOptions,
		IsReturnable: reqBody.IsReturnable,
		IsVisible:    reqBody.IsVisible,
		OnSale:       reqBody.OnSale,
		Images:       reqBody.Images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	logger = logger.With().Str(log.KeyProductID, product.ID).Logger()
	logger.Info().Msg("inserting product")
	if err := s.store.Set(c, docstore.CollectionProducts, product.ID, product); err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Product{}, err
	}
	logger.Info().Msg("inserted product")

	s.dropCache(c)
	return product, nil
}

func (s CatalogService) UpdateProduct(
	c context.Context,
	id string,
	reqBody request.UpdateProduct,
) (entity.Product, error) {
	c, span := tracer.Start(c, "CatalogService UpdateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogService UpdateProduct").
		Str(log.KeyProductID, id).
		Str(log.KeyProcess, "updating product").
		Logger()

	fields := reqBody.Fields()
	fields["updatedAt"] = time.Now()

	logger.Info().Msg("updating product")
	err := s.store.Update(c, docstore.CollectionProducts, id, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		inOtel.RecordError(inErrors.ErrProductNotFound, span)
		logger.Error().Err(err).Msg(inErrors.ErrProductNotFound.Error())
		return entity.Product{}, inErrors.ErrProductNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed updating product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Product{}, err
	}
	logger.Info().Msg("updated product")

	s.dropCache(c)
	c = logger.WithContext(c)
	return s.FindProductByID(c, id)
}

func (s CatalogService) DeleteProduct(c context.Context, id string) error {
	c, span := tracer.Start(c, "CatalogService DeleteProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogService DeleteProduct").
		Str(log.KeyProductID, id).
		Str(log.KeyProcess, "deleting product").
		Logger()

	logger.Info().Msg("deleting product")
	if err := s.store.Delete(c, docstore.CollectionProducts, id); err != nil {
		err = fmt.Errorf("failed deleting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted product")

	s.dropCache(c)
	return nil
}
