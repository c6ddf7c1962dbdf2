package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gyshop/storefront/internal/domain/auth"
)

// apiKeyHeader carries the admin API key.
const apiKeyHeader = "X-API-Key"

// APIKeyAuth returns middleware authenticating requests via HMAC-SHA256
// hashed API keys. The raw key is never stored; requests are matched by the
// keyed hash of the presented value.
func APIKeyAuth(apikeys auth.Repository, pepper []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(key))
			hash := mac.Sum(nil)

			info, err := apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			// Constant-time comparison guards against timing side-channels
			// even though the lookup already succeeded: the stored hash could
			// differ from what we computed if the repository returns a
			// stale/wrong row.
			storedBytes, err := hex.DecodeString(info.KeyHash)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if subtle.ConstantTimeCompare(hash, storedBytes) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
