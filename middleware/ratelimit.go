package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RateLimiter bounds calls per actor over a rolling window. It is an
// admission-control gate in front of batch creation, not part of the
// ledger's correctness.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[int][]time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[int][]time.Time),
	}
}

// Allow records one hit for the actor and reports whether it fits in
// the window.
func (r *RateLimiter) Allow(actorID int) bool {
	if r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	kept := r.hits[actorID][:0]
	for _, t := range r.hits[actorID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= r.limit {
		r.hits[actorID] = kept
		return false
	}

	r.hits[actorID] = append(kept, now)
	return true
}

// Middleware rejects over-limit actors with 429. Must run after
// AuthMiddleware so userID is present.
func (r *RateLimiter) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID, ok := ctx.Locals("userID").(float64)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized: Invalid user ID",
			})
		}

		if !r.Allow(int(userID)) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Too many batch requests, slow down",
			})
		}

		return ctx.Next()
	}
}
