package trackinglinks

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// codeAlphabet excludes visually ambiguous characters (0/O, 1/l/I).
const codeAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	codeLength      = 6
	maxCodeAttempts = 5
)

// CodeTaken reports whether a candidate code is already in use within
// the caller's uniqueness scope (one organization).
type CodeTaken func(ctx context.Context, code string) (bool, error)

// GenerateCode samples random short codes, retrying a bounded number of
// times against the uniqueness check. On exhaustion it falls back to a
// longer code suffixed with a base-36 timestamp instead of looping
// further: never retry unboundedly against external storage.
func GenerateCode(ctx context.Context, taken CodeTaken) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode(codeLength)
		if err != nil {
			return "", err
		}
		used, err := taken(ctx, code)
		if err != nil {
			return "", err
		}
		if !used {
			return code, nil
		}
	}
	code, err := randomCode(codeLength)
	if err != nil {
		return "", err
	}
	return code + strconv.FormatInt(time.Now().UnixMilli(), 36), nil
}

func randomCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("sample code char: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
