package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateTrackingNumber returns PW-YYYYMMDD-XXXXXXXX where the suffix is an
// 8-digit cryptographic random number.
func GenerateTrackingNumber() string {
	now := time.Now().UTC()

	n, err := rand.Int(rand.Reader, big.NewInt(100000000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 100000000)
	}

	return fmt.Sprintf("PW-%s-%08d", now.Format("20060102"), n.Int64())
}
