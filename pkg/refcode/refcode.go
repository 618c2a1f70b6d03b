// Package refcode implements the human-scannable cash note reference code.
//
// A reference code has the form CN-YYMMDD-NNNN-CC where YYMMDD is the issue
// date, NNNN is a random sequence and CC is a checksum: the base-10 digit sum
// of YYMMDDNNNN modulo 99, zero-padded to two digits.
package refcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

// Prefix is the fixed reference code prefix.
const Prefix = "CN"

var pattern = regexp.MustCompile(`^CN-(\d{6})-(\d{4})-(\d{2})$`)

// Generate produces a new reference code dated today.
//
// Generation does not guarantee uniqueness; the registry retries on a
// duplicate code with a fresh random sequence.
func Generate() string {
	return GenerateAt(time.Now())
}

// GenerateAt produces a new reference code dated at t.
func GenerateAt(t time.Time) string {
	date := t.Format("060102")
	seq := randomSequence()
	return fmt.Sprintf("%s-%s-%s-%02d", Prefix, date, seq, Checksum(date+seq))
}

// Validate reports whether code is well formed and its checksum matches.
func Validate(code string) bool {
	m := pattern.FindStringSubmatch(code)
	if m == nil {
		return false
	}
	var cc int
	fmt.Sscanf(m[3], "%d", &cc)
	return Checksum(m[1]+m[2]) == cc
}

// Checksum returns the digit sum of body modulo 99. The body must contain
// only decimal digits; non-digit bytes contribute nothing.
func Checksum(body string) int {
	sum := 0
	for _, r := range body {
		if r >= '0' && r <= '9' {
			sum += int(r - '0')
		}
	}
	return sum % 99
}

func randomSequence() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to a clock-derived sequence rather than panic.
		return fmt.Sprintf("%04d", time.Now().UnixNano()%10000)
	}
	return fmt.Sprintf("%04d", n.Int64())
}
