package mod

import (
	"fmt"
	"math/big"

	"nt-crypto/pkg/errs"
)

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// ModMul 计算 (a * b) mod m，返回新的大整数
func ModMul(a, b, m *big.Int) *big.Int {
	result := new(big.Int).Mul(a, b)
	return result.Mod(result, m)
}

// ModAdd 计算 (a + b) mod m
func ModAdd(a, b, m *big.Int) *big.Int {
	result := new(big.Int).Add(a, b)
	return result.Mod(result, m)
}

// ModSub 计算 (a - b) mod m，结果落在 [0, m)
func ModSub(a, b, m *big.Int) *big.Int {
	result := new(big.Int).Sub(a, b)
	return result.Mod(result, m)
}

// ModExp 计算 (base^exp) mod m。exp 为负数时先对 base 求逆，逆元不存在返回 nil
func ModExp(base, exp, m *big.Int) *big.Int {
	return new(big.Int).Exp(base, exp, m)
}

// Mod 计算 a mod m（欧几里得取模，结果非负）
func Mod(a, m *big.Int) *big.Int {
	return new(big.Int).Mod(a, m)
}

// GCD 返回 gcd(|a|, |b|)，由 ExtendedGCD 得到
func GCD(a, b *big.Int) *big.Int {
	_, _, g := ExtendedGCD(a, b)
	return g
}

// LCM 返回 lcm(|a|, |b|)，任一为 0 时返回 0
func LCM(a, b *big.Int) *big.Int {
	if a.Sign() == 0 || b.Sign() == 0 {
		return new(big.Int)
	}
	g := GCD(a, b)
	l := new(big.Int).Quo(a, g)
	l.Mul(l, b)
	return l.Abs(l)
}

// ModInverse 通过扩展欧几里得计算 a 在模 m 下的逆元，结果落在 [0, m)
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, &NoInverseError{A: a, M: m}
	}
	x, _, g := ExtendedGCD(Mod(a, m), m)
	if g.Cmp(bigOne) != 0 {
		return nil, &NoInverseError{A: a, M: m}
	}
	return x.Mod(x, m), nil
}

// NoInverseError 表示模逆元不存在（gcd(a, m) != 1 或 m <= 0）
type NoInverseError struct {
	A *big.Int
	M *big.Int
}

func (e *NoInverseError) Error() string {
	return fmt.Sprintf("modular inverse of %v mod %v does not exist", e.A, e.M)
}

// Unwrap 让 errors.Is(err, errs.ErrInvalidPrecondition) 成立
func (e *NoInverseError) Unwrap() error {
	return errs.ErrInvalidPrecondition
}
