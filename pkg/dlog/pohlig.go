package dlog

import (
	"context"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"nt-crypto/pkg/crt"
	"nt-crypto/pkg/errs"
	"nt-crypto/pkg/logging"
	"nt-crypto/pkg/mod"
	"nt-crypto/pkg/prime"
)

// PohligHellman 在阶为 ∏factors 的循环群 (Z/pZ)* 中求 x 使 g^x ≡ y (mod p)，
// 其中 p = ∏factors + 1。factors 必须是两两互素的素数幂。
//
// 对每个 q：在 q 阶子群里解 (g^((p-1)/q))^x_q = y^((p-1)/q)，
// 子问题之间互不依赖，并发求解；最后用 CRT 把 x_q mod q 合成 x mod (p-1)。
func PohligHellman(ctx context.Context, g, y *big.Int, factors []*big.Int, cfg *Config) (*big.Int, error) {
	cfg = cfg.withDefaults()
	if g == nil || y == nil {
		return nil, fmt.Errorf("dlog: nil argument: %w", errs.ErrInvalidPrecondition)
	}
	p, err := GroupModulus(factors, cfg.Primes)
	if err != nil {
		return nil, err
	}
	pm1 := new(big.Int).Sub(p, bigOne)
	log := cfg.Logger.With(logging.Int("p", p))

	exponents := make([]*big.Int, len(factors))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Parallelism)
	for i, q := range factors {
		i, q := i, q
		eg.Go(func() error {
			e := new(big.Int).Quo(pm1, q)
			gq := mod.ModExp(g, e, p)
			yq := mod.ModExp(y, e, p)

			x, err := BabyGiant(egctx, gq, yq, p, q, cfg)
			if err != nil {
				return fmt.Errorf("dlog: subgroup of order %v: %w", q, err)
			}
			exponents[i] = x.Mod(x, q)
			log.Debug(egctx, "subgroup solved", logging.Int("q", q), logging.Int("x", exponents[i]))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	x, _, err := crt.Solve(exponents, factors)
	if err != nil {
		return nil, fmt.Errorf("dlog: recombine: %w", err)
	}
	return x, nil
}

// GroupModulus 检查 factors 并返回 p = ∏factors + 1。
// 要求：非空，每个因子 > 1，两两互素，p 为素数；否则返回 errs.ErrInvalidPrecondition。
// primes 为 nil 时使用 prime.Default。
func GroupModulus(factors []*big.Int, primes PrimalityOracle) (*big.Int, error) {
	if len(factors) == 0 {
		return nil, fmt.Errorf("dlog: empty factor list: %w", errs.ErrInvalidPrecondition)
	}
	if primes == nil {
		primes = prime.Default
	}
	order := big.NewInt(1)
	for i, f := range factors {
		if f == nil || f.Cmp(bigOne) <= 0 {
			return nil, fmt.Errorf("dlog: factor %d is %v: %w", i, f, errs.ErrInvalidPrecondition)
		}
		for _, prev := range factors[:i] {
			if mod.GCD(prev, f).Cmp(bigOne) != 0 {
				return nil, fmt.Errorf("dlog: factors %v and %v are not coprime: %w", prev, f, errs.ErrInvalidPrecondition)
			}
		}
		order.Mul(order, f)
	}

	p := order.Add(order, bigOne)
	if !primes.IsPrime(p) {
		return nil, fmt.Errorf("dlog: group modulus %v is not prime: %w", p, errs.ErrInvalidPrecondition)
	}
	return p, nil
}
