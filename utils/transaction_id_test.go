package utils

import (
	"regexp"
	"strings"
	"testing"
)

var txnIDPattern = regexp.MustCompile(`^PG_[0-9A-Z]+_[0-9A-Z]{6}$`)
var refundRefPattern = regexp.MustCompile(`^REF_[0-9A-Z]+_[0-9A-Z]{6}$`)

func TestGenerateTransactionID_Format(t *testing.T) {
	id := GenerateTransactionID()
	if !txnIDPattern.MatchString(id) {
		t.Fatalf("transaction id %q does not match expected shape", id)
	}
	if id != strings.ToUpper(id) {
		t.Fatalf("transaction id %q is not uppercase", id)
	}
}

func TestGenerateTransactionID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateTransactionID()
		if seen[id] {
			t.Fatalf("duplicate transaction id %q after %d generations", id, i)
		}
		seen[id] = true
	}
}

func TestGenerateRefundRef_Format(t *testing.T) {
	ref := GenerateRefundRef()
	if !refundRefPattern.MatchString(ref) {
		t.Fatalf("refund ref %q does not match expected shape", ref)
	}
}
