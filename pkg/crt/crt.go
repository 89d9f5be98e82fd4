package crt

import (
	"fmt"
	"math/big"

	"nt-crypto/pkg/errs"
	"nt-crypto/pkg/mod"
)

// Congruence 表示 x ≡ Residue (mod Modulus)
type Congruence struct {
	Residue *big.Int
	Modulus *big.Int
}

// Solve 用推广的 Garner 算法求解 x ≡ A[i] (mod M[i])，模数不要求两两互素。
// 返回 (X, Y)：Y = lcm(M)，X 是 [0, Y) 内的唯一解。
//
// 输入检查：A、M 长度必须相等且非空，模数必须 >= 1，否则返回 errs.ErrInvalidPrecondition；
// 方程组矛盾时返回 errs.ErrInfeasible。
func Solve(A, M []*big.Int) (*big.Int, *big.Int, error) {
	if len(A) != len(M) {
		return nil, nil, fmt.Errorf("crt: %d residues for %d moduli: %w", len(A), len(M), errs.ErrInvalidPrecondition)
	}
	congruences := make([]Congruence, len(A))
	for i := range A {
		congruences[i] = Congruence{Residue: A[i], Modulus: M[i]}
	}
	return SolveCongruences(congruences)
}

// SolveCongruences 同 Solve，输入为同余式列表
func SolveCongruences(congruences []Congruence) (*big.Int, *big.Int, error) {
	if len(congruences) == 0 {
		return nil, nil, fmt.Errorf("crt: empty system: %w", errs.ErrInvalidPrecondition)
	}
	for i, c := range congruences {
		if err := c.validate(); err != nil {
			return nil, nil, fmt.Errorf("crt: congruence %d: %w", i, err)
		}
	}

	// 累加器初始化为第一个同余式，其余逐个折叠进来
	acc := Congruence{
		Residue: mod.Mod(congruences[0].Residue, congruences[0].Modulus),
		Modulus: new(big.Int).Set(congruences[0].Modulus),
	}
	for i, c := range congruences[1:] {
		next, err := Combine(acc, c)
		if err != nil {
			return nil, nil, fmt.Errorf("crt: congruence %d: %w", i+1, err)
		}
		acc = next
	}
	return acc.Residue, acc.Modulus, nil
}

// Combine 把两个同余式合并成一个，模数为 lcm(m1, m2)。
//
// 设 g = gcd(m1, m2)，要求 a1 ≡ a2 (mod g)。
// 由 (m1/g)*p + (m2/g)*q = 1 得：
//
//	x = a1*(m2/g)*q + a2*(m1/g)*p  (mod lcm(m1, m2))
func Combine(c1, c2 Congruence) (Congruence, error) {
	if err := c1.validate(); err != nil {
		return Congruence{}, err
	}
	if err := c2.validate(); err != nil {
		return Congruence{}, err
	}
	a1, m1 := c1.Residue, c1.Modulus
	a2, m2 := c2.Residue, c2.Modulus

	g := mod.GCD(m1, m2)
	if mod.Mod(a1, g).Cmp(mod.Mod(a2, g)) != 0 {
		return Congruence{}, fmt.Errorf("%v mod %v vs %v mod %v: %w", a1, m1, a2, m2, errs.ErrInfeasible)
	}

	m1g := new(big.Int).Quo(m1, g)
	m2g := new(big.Int).Quo(m2, g)
	p, q, _ := mod.ExtendedGCD(m1g, m2g)

	lcm := new(big.Int).Mul(m1g, m2)

	left := new(big.Int).Mul(a1, m2g)
	left.Mul(left, q)
	right := new(big.Int).Mul(a2, m1g)
	right.Mul(right, p)

	x := left.Add(left, right)
	x.Mod(x, lcm)

	return Congruence{Residue: x, Modulus: lcm}, nil
}

func (c Congruence) validate() error {
	if c.Residue == nil || c.Modulus == nil {
		return fmt.Errorf("nil residue or modulus: %w", errs.ErrInvalidPrecondition)
	}
	if c.Modulus.Sign() <= 0 {
		return fmt.Errorf("modulus %v must be positive: %w", c.Modulus, errs.ErrInvalidPrecondition)
	}
	return nil
}
