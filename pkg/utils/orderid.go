package utils

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"time"
)

const (
	// MaxOrderIDLength is the public contract limit for order identifiers.
	MaxOrderIDLength = 50

	// 64 characters so a random byte maps onto the alphabet without bias.
	orderIDAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"
	orderIDRandomChars = 10
)

var orderIDStripPattern = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// GenerateOrderID creates a unique order identifier.
// Format: CIT-{unix timestamp}-{random alphanumeric}. The random part is drawn
// from crypto/rand because the order id doubles as a capability token.
func GenerateOrderID() string {
	buf := make([]byte, orderIDRandomChars)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable for token generation
		panic(fmt.Sprintf("generate order id: %v", err))
	}
	for i, b := range buf {
		buf[i] = orderIDAlphabet[int(b)&63]
	}

	return fmt.Sprintf("CIT-%d-%s", time.Now().Unix(), string(buf))
}

// SanitizeOrderID strips every character outside [A-Za-z0-9_-] so the value is
// safe to use in lookups, redirects and URLs. Returns false when nothing
// usable remains or the input exceeds the contract length.
func SanitizeOrderID(raw string) (string, bool) {
	if raw == "" || len(raw) > MaxOrderIDLength {
		return "", false
	}

	cleaned := orderIDStripPattern.ReplaceAllString(raw, "")
	if cleaned == "" {
		return "", false
	}

	return cleaned, true
}
