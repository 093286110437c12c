package booking

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Domenick1991/bookingdesk/internal/repository"
)

const (
	referenceLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referenceDigits  = "0123456789"
	referenceRetries = 10
)

// NewReference returns a code shaped AAA999AAA.
func NewReference() string {
	var b [9]byte
	for i := range b {
		if i >= 3 && i < 6 {
			b[i] = referenceDigits[rand.IntN(len(referenceDigits))]
		} else {
			b[i] = referenceLetters[rand.IntN(len(referenceLetters))]
		}
	}
	return string(b[:])
}

func uniqueReference(ctx context.Context, repo repository.BookingRepository, gen func() string) (string, error) {
	for range referenceRetries {
		ref := gen()
		exists, err := repo.ReferenceExists(ctx, ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
	}
	return "", fmt.Errorf("no free booking reference after %d attempts", referenceRetries)
}
