package log

const (
	KeyAppName       = "app"
	KeyRequestID     = "requestId"
	KeyProcess       = "process"
	KeyTag           = "tag"
	KeyConfig        = "config"
	KeyRequestBody   = "requestBody"
	KeyRequestHeader = "requestHeader"
	KeyRequestHost   = "host"
	KeyRequestIp     = "requesterIP"
	KeyRequestMethod = "requestMethod"
	KeyRequestURI    = "requestURI"
	KeyRequestURL    = "requestURL"

	KeyCartState     = "cartState"
	KeyCartItems     = "cartItems"
	KeyCartItemCount = "cartItemCount"
	KeyCartItemID    = "cartItemId"
	KeyProductID     = "productId"
	KeyProductType   = "productType"
	KeyQuantity      = "quantity"
	KeyStorageKey    = "storageKey"
	KeyStoragePath   = "storagePath"
	KeyEndpoint      = "endpoint"
	KeyStatusCode    = "statusCode"
)
