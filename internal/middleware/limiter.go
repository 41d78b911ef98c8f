package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"cafe-be/internal/auth"

	"golang.org/x/time/rate"
)

type tier struct {
	name  string
	limit rate.Limit
	burst int
}

var (
	// payment creation and the gateway callback
	tierStrict   = tier{name: "strict", limit: 2, burst: 5}
	tierGeneral  = tier{name: "general", limit: 10, burst: 20}
	tierInternal = tier{name: "internal", limit: 100, burst: 200}
)

const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per identity and tier. Identity is the
// authenticated user, else the X-Device-ID header, else the client IP.
type RateLimiter struct {
	internalKey string
	now         func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

func NewRateLimiter(internalKey string) *RateLimiter {
	return &RateLimiter{
		internalKey: internalKey,
		now:         time.Now,
		visitors:    make(map[string]*visitor),
	}
}

func (l *RateLimiter) bucket(key string, t tier, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Cleanup drops visitors idle for longer than the TTL.
func (l *RateLimiter) Cleanup() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(l.visitors, key)
		}
	}
}

// RunCleanup calls Cleanup every minute until stop is closed.
func (l *RateLimiter) RunCleanup(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-stop:
			return
		}
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := l.tierFor(r)
		now := l.now()

		res := l.bucket(identity(r)+":"+t.name, t, now).ReserveN(now, 1)
		if delay := res.DelayFrom(now); delay > 0 {
			res.CancelAt(now)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func identity(r *http.Request) string {
	if actor, ok := auth.ActorFrom(r.Context()); ok {
		return "user:" + strconv.FormatInt(actor.UserID, 10)
	}
	if device := r.Header.Get("X-Device-ID"); device != "" {
		return "device:" + device
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

func (l *RateLimiter) tierFor(r *http.Request) tier {
	switch {
	case l.internalKey != "" && r.Header.Get("X-Service-Auth") == l.internalKey:
		return tierInternal
	case r.URL.Path == "/webhook/payment",
		r.Method == http.MethodPost && r.URL.Path == "/payments":
		return tierStrict
	}
	return tierGeneral
}
