package log

const (
	KeyAppName       = "app"
	KeyCacheKey      = "cacheKey"
	KeyCart          = "cart"
	KeyCartItems     = "cartItems"
	KeyConfig        = "config"
	KeyEmail         = "email"
	KeyGuestKey      = "guestKey"
	KeyOrder         = "order"
	KeyOrderID       = "orderId"
	KeyOrderStatus   = "orderStatus"
	KeyOwnerKey      = "ownerKey"
	KeyProcess       = "process"
	KeyProduct       = "product"
	KeyProductID     = "productId"
	KeyQuantity      = "quantity"
	KeyRequestBody   = "requestBody"
	KeyRequestHost   = "host"
	KeyRequestID     = "requestId"
	KeyRequestIP     = "requesterIP"
	KeyRequestMethod = "requestMethod"
	KeyRequestURI    = "requestURI"
	KeyRequestURL    = "requestURL"
	KeySpanID        = "spanId"
	KeySubtotal      = "subtotal"
	KeyTag           = "tag"
	KeyTraceID       = "traceId"
	KeyUserID        = "userId"
	KeyWishlist      = "wishlist"
)
