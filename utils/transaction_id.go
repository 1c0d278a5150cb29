package utils

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

var mu sync.Mutex
var seededRand *rand.Rand

func init() {
	seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))
}

const txnRandChars = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(txnRandChars[seededRand.Intn(len(txnRandChars))])
	}
	return b.String()
}

// GenerateTransactionID produces a gateway transaction reference of the
// form PG_<base36 millis>_<6 random chars>, uppercased.
func GenerateTransactionID() string {
	mu.Lock()
	defer mu.Unlock()

	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return strings.ToUpper(fmt.Sprintf("PG_%s_%s", ts, randomSuffix(6)))
}

// GenerateRefundRef produces a refund reference of the form
// REF_<base36 millis>_<6 random chars>, uppercased.
func GenerateRefundRef() string {
	mu.Lock()
	defer mu.Unlock()

	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return strings.ToUpper(fmt.Sprintf("REF_%s_%s", ts, randomSuffix(6)))
}
