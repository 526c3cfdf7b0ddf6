package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/calegray/storefront/internal/log"
)

// WriteJsonResponse writes the conventional envelope. A "statusCode"
// entry in body decides the HTTP status, defaulting to 200.
func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "WriteJsonResponse").Logger()

	w.Header().Add(HeaderContentType, HeaderValueJson)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	if v, ok := body["statusCode"].(int); ok {
		w.WriteHeader(v)
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		logger.Error().Err(err).Msgf("failed encoding response body with error=%s", err.Error())
		return
	}
}
