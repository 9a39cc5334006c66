package httpserver

import (
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fdg312/nomnom/internal/config"
	"golang.org/x/time/rate"
)

// Limiters for idle clients are evicted every cleanupEvery requests.
const cleanupEvery = 1000

// limiterPool держит по одному token bucket на IP клиента.
type limiterPool struct {
	mu       sync.Mutex
	byIP     map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
	requests atomic.Int64
}

func newLimiterPool(rps, burst int) *limiterPool {
	return &limiterPool{
		byIP:  make(map[string]*rate.Limiter),
		rps:   rate.Limit(rps),
		burst: burst,
	}
}

func (p *limiterPool) limiter(ip string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	lim, ok := p.byIP[ip]
	if !ok {
		lim = rate.NewLimiter(p.rps, p.burst)
		p.byIP[ip] = lim
	}

	if p.requests.Add(1)%cleanupEvery == 0 {
		p.evictIdle()
	}
	return lim
}

// evictIdle removes entries whose bucket refilled completely: a full bucket
// means the client has been quiet for at least burst/rps seconds.
func (p *limiterPool) evictIdle() {
	for ip, lim := range p.byIP {
		if lim.Tokens() >= float64(p.burst) {
			delete(p.byIP, ip)
		}
	}
}

// RateLimitMiddleware ограничивает частоту запросов с одного IP.
// RATE_LIMIT_RPS <= 0 отключает лимит целиком.
func RateLimitMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	if cfg.RateLimitRPS <= 0 {
		return next
	}

	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = cfg.RateLimitRPS
	}
	log.Printf("INFO ratelimit: rps=%d burst=%d", cfg.RateLimitRPS, burst)

	pool := newLimiterPool(cfg.RateLimitRPS, burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !pool.limiter(extractIP(r)).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":"rate_limited","message":"Too many requests"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractIP берет первый адрес из X-Forwarded-For, иначе RemoteAddr.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
