package mod

import (
	"fmt"
	"math/big"

	"nt-crypto/pkg/errs"
)

// Legendre 计算 (a/p) 的勒让德符号，返回 -1、0 或 1
type Legendre interface {
	Legendre(a, p *big.Int) int
}

// LegendreFunc 让普通函数满足 Legendre 接口
type LegendreFunc func(a, p *big.Int) int

func (f LegendreFunc) Legendre(a, p *big.Int) int {
	return f(a, p)
}

// p 为奇素数时雅可比符号就是勒让德符号
var jacobi = LegendreFunc(func(a, p *big.Int) int {
	return big.Jacobi(a, p)
})

// Sqrt 用 Tonelli–Shanks 求 x 使 x^2 ≡ a (mod p)，p 为素数
func Sqrt(a, p *big.Int) (*big.Int, error) {
	return SqrtWith(a, p, nil)
}

// SqrtWith 同 Sqrt，勒让德符号由 oracle 提供；oracle 为 nil 时用内置的雅可比符号。
//
// 返回值约定：
//   - a ≡ 0 (mod p)：返回 0
//   - p = 2：返回 a mod 2
//   - a 不是二次剩余：errs.ErrNoResidue
//   - p < 2、p 为偶数或算法发现 p 不是素数：errs.ErrInvalidPrecondition
func SqrtWith(a, p *big.Int, oracle Legendre) (*big.Int, error) {
	if a == nil || p == nil || p.Cmp(bigTwo) < 0 {
		return nil, fmt.Errorf("mod: sqrt modulus %v: %w", p, errs.ErrInvalidPrecondition)
	}
	if oracle == nil {
		oracle = jacobi
	}

	a = Mod(a, p)
	if a.Sign() == 0 {
		return a, nil
	}
	if p.Cmp(bigTwo) == 0 {
		return a, nil
	}
	if p.Bit(0) == 0 {
		return nil, fmt.Errorf("mod: sqrt modulus %v is even: %w", p, errs.ErrInvalidPrecondition)
	}
	if oracle.Legendre(a, p) != 1 {
		return nil, fmt.Errorf("mod: %v mod %v: %w", a, p, errs.ErrNoResidue)
	}

	// p ≡ 3 (mod 4)：x = a^((p+1)/4)
	if p.Bit(1) == 1 {
		e := new(big.Int).Add(p, bigOne)
		e.Rsh(e, 2)
		x := ModExp(a, e, p)
		if ModMul(x, x, p).Cmp(a) != 0 {
			return nil, fmt.Errorf("mod: sqrt modulus %v is not prime: %w", p, errs.ErrInvalidPrecondition)
		}
		return x, nil
	}

	// p - 1 = s * 2^e，s 为奇数
	pm1 := new(big.Int).Sub(p, bigOne)
	e := pm1.TrailingZeroBits()
	s := new(big.Int).Rsh(pm1, e)

	// 从 2 开始线性找一个二次非剩余 n
	n := big.NewInt(2)
	for oracle.Legendre(n, p) != -1 {
		n.Add(n, bigOne)
		if n.Cmp(p) >= 0 {
			return nil, fmt.Errorf("mod: no non-residue below %v: %w", p, errs.ErrInvalidPrecondition)
		}
	}

	sp1 := new(big.Int).Add(s, bigOne)
	x := ModExp(a, sp1.Rsh(sp1, 1), p)
	b := ModExp(a, s, p)
	g := ModExp(n, s, p)
	r := e

	t := new(big.Int)
	for {
		// 找最小的 m ∈ [0, r) 使 b^(2^m) ≡ 1
		m := uint(0)
		t.Set(b)
		for t.Cmp(bigOne) != 0 {
			t.Mul(t, t).Mod(t, p)
			m++
			if m >= r {
				return nil, fmt.Errorf("mod: sqrt modulus %v is not prime: %w", p, errs.ErrInvalidPrecondition)
			}
		}
		if m == 0 {
			return x, nil
		}

		// gs = g^(2^(r-m-1))
		gs := new(big.Int).Set(g)
		for i := uint(0); i < r-m-1; i++ {
			gs.Mul(gs, gs).Mod(gs, p)
		}
		g = ModMul(gs, gs, p)
		x = ModMul(x, gs, p)
		b = ModMul(b, g, p)
		r = m
	}
}
