package dlog

import (
	"context"
	"fmt"
	"math/big"

	"nt-crypto/pkg/errs"
	"nt-crypto/pkg/logging"
	"nt-crypto/pkg/mod"
)

// 每隔多少步检查一次 ctx
const checkEvery = 1 << 10

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// BabyGiant 用 baby-step/giant-step 求 x 使 g^x ≡ y (mod p)。
// q 是 g 所在子群的阶（已知时传入），nil 表示 q = p。表大小 m = ⌈√q⌉，
// 搜索范围是 [0, m²)，返回范围内最小的解。
//
// baby-step 表按"先写入者保留"构造，并且在 g^i 回到 1 时提前停止，
// 所以低阶元素也能得到最小指数。
func BabyGiant(ctx context.Context, g, y, p, q *big.Int, cfg *Config) (*big.Int, error) {
	cfg = cfg.withDefaults()
	if g == nil || y == nil || p == nil {
		return nil, fmt.Errorf("dlog: nil argument: %w", errs.ErrInvalidPrecondition)
	}
	if p.Cmp(bigTwo) < 0 {
		return nil, fmt.Errorf("dlog: modulus %v: %w", p, errs.ErrInvalidPrecondition)
	}
	if q == nil {
		q = p
	}
	if q.Sign() <= 0 {
		return nil, fmt.Errorf("dlog: group order %v: %w", q, errs.ErrInvalidPrecondition)
	}

	m := ceilSqrt(q)
	if !m.IsUint64() || m.Uint64() > cfg.MaxTableSize {
		return nil, fmt.Errorf("dlog: table size %v exceeds %d: %w", m, cfg.MaxTableSize, errs.ErrBudgetExceeded)
	}
	size := m.Uint64()

	gp := mod.Mod(g, p)
	gInv, err := mod.ModInverse(gp, p)
	if err != nil {
		return nil, fmt.Errorf("dlog: generator: %w", err)
	}

	table, err := babySteps(ctx, gp, p, size)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug(ctx, "bsgs table built",
		logging.Int("p", p), logging.Int("q", q), "m", size, "entries", len(table))

	// giant step：gamma = y * g^(-m*j)
	gim := mod.ModExp(gInv, m, p)
	gamma := mod.Mod(y, p)
	for j := uint64(0); j < size; j++ {
		if j%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("dlog: giant steps: %w", err)
			}
		}
		if i, ok := table[tableKey(gamma)]; ok {
			x := new(big.Int).SetUint64(j)
			x.Mul(x, m)
			x.Add(x, new(big.Int).SetUint64(i))
			return x, nil
		}
		gamma = mod.ModMul(gamma, gim, p)
	}
	return nil, fmt.Errorf("dlog: %v^x ≡ %v (mod %v) within %d giant steps: %w", g, y, p, size, errs.ErrNotFound)
}

// babySteps 构造 g^i mod p -> i，i ∈ [0, size)；遇到重复值（即 g^i = 1）时停止
func babySteps(ctx context.Context, g, p *big.Int, size uint64) (map[string]uint64, error) {
	table := make(map[string]uint64, min(size, 1<<16))
	cur := big.NewInt(1)
	for i := uint64(0); i < size; i++ {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("dlog: baby steps: %w", err)
			}
		}
		k := tableKey(cur)
		if _, seen := table[k]; seen {
			break
		}
		table[k] = i
		cur = mod.ModMul(cur, g, p)
	}
	return table, nil
}

func tableKey(v *big.Int) string {
	return string(v.Bytes())
}

// ceilSqrt 返回 ⌈√n⌉，n > 0
func ceilSqrt(n *big.Int) *big.Int {
	s := new(big.Int).Sqrt(n)
	if new(big.Int).Mul(s, s).Cmp(n) < 0 {
		s.Add(s, bigOne)
	}
	return s
}
