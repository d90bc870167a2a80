package idempotency

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/inventory-ledger-service/pkg/logging"
)

type responseRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware deduplicates mutating requests carrying an Idempotency-Key
// header. Completed requests replay the stored response, in-flight duplicates
// receive 409, and a replay with a different body receives 422.
func Middleware(repo KeyRepository, cfg Config, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		key := NormalizeKey(c.GetHeader(cfg.HeaderName))
		if key == "" {
			if cfg.RequireHeader {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": gin.H{
						"code":    "IDEMPOTENCY_KEY_REQUIRED",
						"message": cfg.HeaderName + " header is required",
					},
				})
				return
			}
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, cfg.MaxBodyBytes))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"code": "INVALID_REQUEST", "message": "failed to read request body"},
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		fingerprint := ComputeFingerprint(body)
		stored, acquired, err := repo.AcquireLock(c.Request.Context(), &Key{
			Key:                key,
			ServiceID:          cfg.ServiceID,
			RequestPath:        c.FullPath(),
			RequestMethod:      c.Request.Method,
			RequestFingerprint: fingerprint,
		})
		if err != nil {
			logger.WithError(err).Error("failed to acquire idempotency lock")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"code": "INTERNAL_ERROR", "message": "idempotency check failed"},
			})
			return
		}

		if !acquired {
			if stored.RequestFingerprint != fingerprint {
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
					"error": gin.H{
						"code":    "IDEMPOTENCY_KEY_MISMATCH",
						"message": "idempotency key was used with a different request body",
					},
				})
				return
			}
			if stored.IsCompleted() {
				c.Data(stored.ResponseCode, "application/json", stored.ResponseBody)
				c.Abort()
				return
			}
			if stored.IsLocked() && time.Since(*stored.LockedAt) < cfg.LockTimeout {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"error": gin.H{
						"code":    "REQUEST_IN_FLIGHT",
						"message": "a request with this idempotency key is already being processed",
					},
				})
				return
			}
			// Stale lock, reprocess
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status >= 200 && status < 500 {
			if err := repo.StoreResponse(c.Request.Context(), key, cfg.ServiceID, status, recorder.body.Bytes()); err != nil {
				logger.WithError(err).Error("failed to store idempotent response")
			}
		} else {
			if err := repo.ReleaseLock(c.Request.Context(), key, cfg.ServiceID); err != nil && err != ErrKeyNotFound {
				logger.WithError(err).Error("failed to release idempotency lock")
			}
		}
	}
}
