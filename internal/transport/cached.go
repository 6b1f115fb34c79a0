package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"vetclinic-backend/internal/cache"
)

// WriteCached writes the payload and stores the serialized bytes under key
// so the next read within ttl can skip the database. Cache failures are
// ignored; the response already went out.
func WriteCached(w http.ResponseWriter, ctx context.Context, c cache.Cache, key string, ttl time.Duration, status int, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		WriteJSON(w, status, payload)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)

	if c != nil && ttl > 0 {
		_ = c.Set(ctx, key, raw, ttl)
	}
}
