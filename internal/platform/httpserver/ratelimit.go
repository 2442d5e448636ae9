package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
)

// rateLimit throttles /v1/ requests per client IP. Health and swagger routes
// are never limited.
type rateLimit struct {
	rate   limiter.Rate
	store  limiter.Store
	logger *slog.Logger
}

func newRateLimit(formatted string, logger *slog.Logger) (*rateLimit, error) {
	formatted = strings.TrimSpace(formatted)
	if formatted == "" || strings.EqualFold(formatted, "off") {
		return &rateLimit{logger: logger}, nil
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit %q: %w", formatted, err)
	}
	return &rateLimit{
		rate:   rate,
		store:  limitermemory.NewStoreWithOptions(limiter.StoreOptions{CleanUpInterval: time.Hour}),
		logger: logger,
	}, nil
}

func (rl *rateLimit) limit(w http.ResponseWriter, r *http.Request) bool {
	if rl.store == nil || !strings.HasPrefix(r.URL.Path, "/v1/") {
		return false
	}

	ip := limiter.GetIP(r, limiter.Options{TrustForwardHeader: true})
	rctx, err := rl.store.Get(r.Context(), ip.String(), rl.rate)
	if err != nil {
		rl.logger.Warn("rate limit store failed",
			"event", "http_rate_limit_store_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		return false
	}

	w.Header().Add("X-RateLimit-Limit", strconv.FormatInt(rctx.Limit, 10))
	w.Header().Add("X-RateLimit-Remaining", strconv.FormatInt(rctx.Remaining, 10))
	w.Header().Add("X-RateLimit-Reset", strconv.FormatInt(rctx.Reset, 10))

	if rctx.Reached {
		writeLedgerError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
		return true
	}
	return false
}

func (rl *rateLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}
