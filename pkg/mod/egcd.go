package mod

import "math/big"

// ExtendedGCD 迭代版扩展欧几里得算法，返回 (x, y, g) 满足 a*x + b*y = g = gcd(|a|, |b|)
//
// 循环不变量：
//
//	a*x + b*y = g
//	a*s + b*t = c
//
// 每一步 q = g / c，(g, c) <- (c, g - q*c)，系数同步更新。
// 结束后把 g 规范成非负数（必要时 x, y 同时取反）。
// a = b = 0 时返回 (1, 0, 0)。
func ExtendedGCD(a, b *big.Int) (x, y, g *big.Int) {
	x, y, g = big.NewInt(1), big.NewInt(0), new(big.Int).Set(a)
	s, t, c := big.NewInt(0), big.NewInt(1), new(big.Int).Set(b)

	q := new(big.Int)
	tmp := new(big.Int)
	for c.Sign() != 0 {
		q.Div(g, c)
		g, c = c, g.Sub(g, tmp.Mul(q, c))
		x, s = s, x.Sub(x, tmp.Mul(q, s))
		y, t = t, y.Sub(y, tmp.Mul(q, t))
	}

	if g.Sign() < 0 {
		g.Neg(g)
		x.Neg(x)
		y.Neg(y)
	}
	return x, y, g
}
