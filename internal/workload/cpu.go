// Package workload implements the CPU- and IO-bound kernels used by
// cmd/workload to give the scheduler real processes to pre-empt. Adapted from
// the teacher repository's internal/handlers/cpu.go and io.go: the same
// algorithms, stripped of their HTTP/JSON/context-cancellation scaffolding,
// since pre-emption is now the Scheduler's STOP/CONTINUE protocol rather than
// a context deadline.
package workload

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"math/big"
	"math/rand"
	"strings"
	"time"
)

// Spin busy-loops for roughly d, spending CPU so the scheduler has something
// real to pre-empt mid-computation.
func Spin(d time.Duration) {
	end := time.Now().Add(d)
	x := 0.0
	for time.Now().Before(end) {
		x += math.Sqrt(99991.0)
		if x > 1e9 {
			x = 0
		}
	}
}

// IsPrimeDivision tests primality by trial division up to sqrt(n).
func IsPrimeDivision(n int64) bool {
	switch {
	case n < 2:
		return false
	case n == 2 || n == 3:
		return true
	case n%2 == 0:
		return false
	}
	limit := int64(math.Sqrt(float64(n)))
	for d := int64(3); d <= limit; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// IsPrimeMillerRabin is the deterministic Miller-Rabin test for 64-bit n,
// using the known witness set that is exact below 2^64.
func IsPrimeMillerRabin(n uint64) bool {
	if n < 2 {
		return false
	}
	small := [...]uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37}
	for _, p := range small {
		if n == p {
			return true
		}
		if n%p == 0 {
			return false
		}
	}

	r := 0
	d := n - 1
	for d&1 == 0 {
		d >>= 1
		r++
	}

	bases := [...]uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37}
	nBI := new(big.Int).SetUint64(n)
	dBI := new(big.Int).SetUint64(d)

	for _, a := range bases {
		if a%n == 0 {
			continue
		}
		x := new(big.Int).Exp(new(big.Int).SetUint64(a), dBI, nBI)
		if x.Sign() == 0 || x.Cmp(big.NewInt(1)) == 0 || x.Cmp(new(big.Int).Sub(nBI, big.NewInt(1))) == 0 {
			continue
		}
		composite := true
		for j := 1; j < r; j++ {
			x.Mul(x, x)
			x.Mod(x, nBI)
			if x.Cmp(new(big.Int).Sub(nBI, big.NewInt(1))) == 0 {
				composite = false
				break
			}
		}
		if composite {
			return false
		}
	}
	return true
}

// Factor returns the prime factorization of n>=2 as (prime, exponent) pairs.
func Factor(n int64) [][2]int64 {
	var facts [][2]int64

	if n%2 == 0 {
		c := int64(0)
		for n%2 == 0 {
			n /= 2
			c++
		}
		facts = append(facts, [2]int64{2, c})
	}
	for d := int64(3); d <= n/d; d += 2 {
		if n%d == 0 {
			c := int64(0)
			for n%d == 0 {
				n /= d
				c++
			}
			facts = append(facts, [2]int64{d, c})
		}
	}
	if n > 1 {
		facts = append(facts, [2]int64{n, 1})
	}
	return facts
}

// arccotScaled computes scale*arctan(1/x) by the standard alternating
// integer-arithmetic series 1/x - 1/(3x^3) + 1/(5x^5) - ..., truncated once a
// term underflows to zero.
func arccotScaled(x int64, scale *big.Int) *big.Int {
	xBig := big.NewInt(x)
	x2 := new(big.Int).Mul(xBig, xBig)
	term := new(big.Int).Div(scale, xBig)
	sum := new(big.Int).Set(term)

	negative := true
	for k := int64(3); term.Sign() != 0; k += 2 {
		term.Div(term, x2)
		if term.Sign() == 0 {
			break
		}
		t := new(big.Int).Div(term, big.NewInt(k))
		if negative {
			sum.Sub(sum, t)
		} else {
			sum.Add(sum, t)
		}
		negative = !negative
	}
	return sum
}

// PiSpigot computes n decimal digits of pi via Machin's formula
// (pi = 16*arctan(1/5) - 4*arctan(1/239)) in fixed-point integer arithmetic,
// returning "3." followed by n digits.
func PiSpigot(n int) string {
	if n <= 0 {
		return "3"
	}

	const guardDigits = 20
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n+guardDigits)), nil)

	a5 := arccotScaled(5, scale)
	a239 := arccotScaled(239, scale)

	pi := new(big.Int).Mul(a5, big.NewInt(16))
	pi.Sub(pi, new(big.Int).Mul(a239, big.NewInt(4)))

	digits := pi.String()
	want := n + guardDigits + 1
	if len(digits) < want {
		digits = strings.Repeat("0", want-len(digits)) + digits
	}
	frac := digits[1:want]
	return digits[:1] + "." + frac[:n]
}

// MatrixMulHash multiplies two deterministically seeded NxN matrices and
// returns the SHA-256 of the result, exercising memory bandwidth as well as
// raw CPU.
func MatrixMulHash(n int, seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	a := make([]int64, n*n)
	b := make([]int64, n*n)
	for i := 0; i < n*n; i++ {
		a[i] = int64(rng.Intn(7) - 3)
		b[i] = int64(rng.Intn(7) - 3)
	}

	c := make([]int64, n*n)
	for i := 0; i < n; i++ {
		ik := i * n
		for k := 0; k < n; k++ {
			aik := a[ik+k]
			if aik == 0 {
				continue
			}
			kj := k * n
			for j := 0; j < n; j++ {
				c[ik+j] += aik * b[kj+j]
			}
		}
	}

	h := sha256.New()
	for _, v := range c {
		_ = binary.Write(h, binary.LittleEndian, v)
	}
	return hex.EncodeToString(h.Sum(nil))
}
