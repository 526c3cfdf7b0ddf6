package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/calegray/storefront/entity"
	"github.com/calegray/storefront/internal/cart/reconcile"
	"github.com/calegray/storefront/internal/docstore"
	"github.com/calegray/storefront/internal/log"
	inOtel "github.com/calegray/storefront/internal/otel"
)

var tracer = otel.Tracer("github.com/calegray/storefront/internal/cart/service")

// Owner names the logical cart for a session: an authenticated user id
// against the durable store, or a guest key against the ephemeral one.
type Owner struct {
	Key   string
	Guest bool
}

func GuestOwner(key string) Owner {
	if key == "" {
		key = entity.OwnerGuest
	}
	return Owner{Key: key, Guest: true}
}

func UserOwner(uid string) Owner {
	return Owner{Key: uid}
}

type CartService struct {
	durable docstore.Store
	guests  docstore.Store
	cache   *redis.Client
}

func NewCartService(durable docstore.Store, guests docstore.Store, cache *redis.Client) CartService {
	return CartService{durable: durable, guests: guests, cache: cache}
}

func (s CartService) store(owner Owner) (docstore.Store, string) {
	if owner.Guest {
		return s.guests, docstore.CollectionGuestCarts
	}
	return s.durable, docstore.CollectionCarts
}

func cacheKey(owner Owner) string {
	return fmt.Sprintf("carts:%s", owner.Key)
}

func (s CartService) cachedCart(c context.Context, owner Owner) (entity.Cart, bool) {
	if s.cache == nil || owner.Guest {
		return entity.Cart{}, false
	}
	raw, err := s.cache.Get(c, cacheKey(owner)).Result()
	if err != nil {
		return entity.Cart{}, false
	}
	cart := entity.Cart{}
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return entity.Cart{}, false
	}
	return cart, true
}

func (s CartService) fillCache(c context.Context, owner Owner, cart entity.Cart) {
	if s.cache == nil || owner.Guest {
		return
	}
	raw, err := json.Marshal(cart)
	if err != nil {
		return
	}
	if err := s.cache.Set(c, cacheKey(owner), raw, time.Hour).Err(); err != nil {
		zerolog.Ctx(c).Warn().Err(err).Str(log.KeyCacheKey, cacheKey(owner)).
			Msg("failed inserting cart to cache")
	}
}

func (s CartService) dropCache(c context.Context, owner Owner) {
	if s.cache == nil || owner.Guest {
		return
	}
	if err := s.cache.Del(c, cacheKey(owner)).Err(); err != nil {
		zerolog.Ctx(c).Warn().Err(err).Str(log.KeyCacheKey, cacheKey(owner)).
			Msg("failed deleting cart from cache")
	}
}

// FindCart returns the owner's cart, creating an empty one on first
// access.
func (s CartService) FindCart(c context.Context, owner Owner) (entity.Cart, error) {
	c, span := tracer.Start(c, "CartService FindCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService FindCart").
		Str(log.KeyOwnerKey, owner.Key).
		Logger()

	if cart, ok := s.cachedCart(c, owner); ok {
		logger.Info().Msg("found cart in cache")
		return cart, nil
	}

	store, collection := s.store(owner)

	logger = logger.With().Str(log.KeyProcess, "finding cart in store").Logger()
	logger.Info().Msg("finding cart in store")
	cart := entity.Cart{}
	err := docstore.GetAs(c, store, collection, owner.Key, &cart)
	if errors.Is(err, docstore.ErrNotFound) {
		logger.Info().Msg("cart absent, creating empty cart")
		cart = entity.NewCart(owner.Key)
		if err := store.Set(c, collection, owner.Key, cart); err != nil {
			err = fmt.Errorf("failed creating empty cart with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return entity.Cart{}, err
		}
		s.fillCache(c, owner, cart)
		return cart, nil
	}
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Cart{}, err
	}
	logger.Info().Int(log.KeyCartItems, len(cart.Items)).Msg("found cart in store")

	s.fillCache(c, owner, cart)
	return cart, nil
}

func (s CartService) save(c context.Context, owner Owner, cart entity.Cart) error {
	store, collection := s.store(owner)
	if err := store.Set(c, collection, owner.Key, cart); err != nil {
		return fmt.Errorf("failed saving cart with error=%w", err)
	}
	s.dropCache(c, owner)
	return nil
}

// AddItem applies add semantics: quantity summed for an existing
// product id, appended otherwise.
func (s CartService) AddItem(
	c context.Context,
	owner Owner,
	item entity.CartItem,
) (entity.Cart, error) {
	c, span := tracer.Start(c, "CartService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddItem").
		Str(log.KeyOwnerKey, owner.Key).
		Str(log.KeyProductID, item.ProductID).
		Int(log.KeyQuantity, item.Quantity).
		Logger()

	c = logger.WithContext(c)
	cart, err := s.FindCart(c, owner)
	if err != nil {
		inOtel.RecordError(err, span)
		return entity.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "adding item").Logger()
	logger.Info().Msg("adding item")
	cart = reconcile.Add(cart, item)
	if err := s.save(c, owner, cart); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Cart{}, err
	}
	logger.Info().Msg("added item")

	return cart, nil
}

// SetQuantity overwrites an item quantity; absent product ids fail
// with ErrCartItemNotFound.
func (s CartService) SetQuantity(
	c context.Context,
	owner Owner,
	productID string,
	quantity int,
) (entity.Cart, error) {
	c, span := tracer.Start(c, "CartService SetQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService SetQuantity").
		Str(log.KeyOwnerKey, owner.Key).
		Str(log.KeyProductID, productID).
		Int(log.KeyQuantity, quantity).
		Logger()

	c = logger.WithContext(c)
	cart, err := s.FindCart(c, owner)
	if err != nil {
		inOtel.RecordError(err, span)
		return entity.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "updating quantity").Logger()
	logger.Info().Msg("updating quantity")
	cart, err = reconcile.SetQuantity(cart, productID, quantity)
	if err != nil {
		err = fmt.Errorf("failed updating quantity of productId=%s with error=%w", productID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Cart{}, err
	}
	if err := s.save(c, owner, cart); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Cart{}, err
	}
	logger.Info().Msg("updated quantity")

	return cart, nil
}

// RemoveItem filters the product out of the cart; removing an absent
// id is a no-op.
func (s CartService) RemoveItem(
	c context.Context,
	owner Owner,
	productID string,
) (entity.Cart, error) {
	c, span := tracer.Start(c, "CartService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveItem").
		Str(log.KeyOwnerKey, owner.Key).
		Str(log.KeyProductID, productID).
		Logger()

	c = logger.WithContext(c)
	cart, err := s.FindCart(c, owner)
	if err != nil {
		inOtel.RecordError(err, span)
		return entity.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "removing item").Logger()
	logger.Info().Msg("removing item")
	cart = reconcile.Remove(cart, productID)
	if err := s.save(c, owner, cart); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Cart{}, err
	}
	logger.Info().Msg("removed item")

	return cart, nil
}

// SyncGuestCart merges the named guest cart into the user's durable
// cart and deletes the guest copy once the merged cart is persisted,
// so a replayed sync cannot double-count. An absent or empty guest
// cart returns the user cart unchanged.
func (s CartService) SyncGuestCart(
	c context.Context,
	guestKey string,
	uid string,
) (entity.Cart, error) {
	c, span := tracer.Start(c, "CartService SyncGuestCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService SyncGuestCart").
		Str(log.KeyGuestKey, guestKey).
		Str(log.KeyUserID, uid).
		Logger()

	guestOwner := GuestOwner(guestKey)
	userOwner := UserOwner(uid)

	logger = logger.With().Str(log.KeyProcess, "finding guest cart").Logger()
	logger.Info().Msg("finding guest cart")
	guestCart := entity.Cart{}
	err := docstore.GetAs(c, s.guests, docstore.CollectionGuestCarts, guestOwner.Key, &guestCart)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		err = fmt.Errorf("failed finding guest cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Cart{}, err
	}

	c = logger.WithContext(c)
	userCart, err := s.FindCart(c, userOwner)
	if err != nil {
		inOtel.RecordError(err, span)
		return entity.Cart{}, err
	}

	if len(guestCart.Items) == 0 {
		logger.Info().Msg("guest cart empty, nothing to merge")
		return userCart, nil
	}

	logger = logger.With().Str(log.KeyProcess, "merging carts").Logger()
	logger.Info().
		Int("guestItems", len(guestCart.Items)).
		Int("userItems", len(userCart.Items)).
		Msg("merging guest cart into user cart")
	merged := reconcile.Merge(guestCart, userCart)
	if err := s.save(c, userOwner, merged); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Cart{}, err
	}
	logger.Info().Int(log.KeyCartItems, len(merged.Items)).Msg("merged guest cart into user cart")

	// The guest copy goes away only after the merged cart is durable;
	// merging twice would double-count quantities.
	logger = logger.With().Str(log.KeyProcess, "deleting guest cart").Logger()
	logger.Info().Msg("deleting guest cart")
	if err := s.guests.Delete(c, docstore.CollectionGuestCarts, guestOwner.Key); err != nil {
		err = fmt.Errorf("failed deleting guest cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.Cart{}, err
	}
	logger.Info().Msg("deleted guest cart")

	return merged, nil
}

// Clear removes the owner's cart outright; checkout uses it after the
// order snapshot is taken.
func (s CartService) Clear(c context.Context, owner Owner) error {
	c, span := tracer.Start(c, "CartService Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService Clear").
		Str(log.KeyOwnerKey, owner.Key).
		Str(log.KeyProcess, "deleting cart").
		Logger()

	store, collection := s.store(owner)
	logger.Info().Msg("deleting cart")
	if err := store.Delete(c, collection, owner.Key); err != nil {
		err = fmt.Errorf("failed deleting cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	s.dropCache(c, owner)
	logger.Info().Msg("deleted cart")

	return nil
}
