package factor

import (
	"context"
	"fmt"
	"math/big"

	"nt-crypto/pkg/errs"
	"nt-crypto/pkg/logging"
	"nt-crypto/pkg/mod"
	"nt-crypto/pkg/prime"
)

// DefaultPublicExponent 是 FromED 在 e 为 nil 时使用的 RSA 公钥指数
var DefaultPublicExponent = big.NewInt(65537)

var (
	bigOne  = big.NewInt(1)
	bigTwo  = big.NewInt(2)
	bigFour = big.NewInt(4)
)

// PrimeStepper 返回严格大于 n 的最小素数，用来枚举见证数 2, 3, 5, 7, ...
type PrimeStepper interface {
	NextPrime(n *big.Int) *big.Int
}

// Config 控制见证数搜索
type Config struct {
	// 最多尝试多少个见证数
	MaxWitnesses int

	Primes PrimeStepper
	Logger logging.Logger
}

func DefaultConfig() *Config {
	return &Config{
		MaxWitnesses: 128,
		Primes:       prime.Default,
		Logger:       logging.Nop(),
	}
}

func (cfg *Config) withDefaults() *Config {
	def := DefaultConfig()
	if cfg == nil {
		return def
	}
	out := *cfg
	if out.MaxWitnesses <= 0 {
		out.MaxWitnesses = def.MaxWitnesses
	}
	if out.Primes == nil {
		out.Primes = def.Primes
	}
	out.Logger = logging.OrNop(out.Logger)
	return &out
}

// Result 是分解结果，P <= Q 且 P * Q = n
type Result struct {
	P *big.Int
	Q *big.Int
}

func newResult(d, n *big.Int) *Result {
	p := new(big.Int).Set(d)
	q := new(big.Int).Quo(n, d)
	if p.Cmp(q) > 0 {
		p, q = q, p
	}
	return &Result{P: p, Q: q}
}

// FromKPhi 已知 φ(n) 的某个正倍数 kphi 时分解半素数 n = p * q。
//
// 思路同 Miller-Rabin：kphi = 2^r * s（s 为奇数），对见证数 g 有 g^kphi ≡ 1 (mod n)，
// 依次检查 x = g^s, g^(2s), ..., g^(2^(r-1)s)，一旦 gcd(x-1, n) 非平凡就得到因子。
// 每个见证数成功的概率至少为 1/2；最多尝试 cfg.MaxWitnesses 个素数见证数。
func FromKPhi(ctx context.Context, n, kphi *big.Int, cfg *Config) (*Result, error) {
	cfg = cfg.withDefaults()
	if n == nil || kphi == nil {
		return nil, fmt.Errorf("factor: nil argument: %w", errs.ErrInvalidPrecondition)
	}
	if n.Cmp(bigFour) < 0 {
		return nil, fmt.Errorf("factor: n = %v too small: %w", n, errs.ErrInvalidPrecondition)
	}
	if kphi.Sign() <= 0 {
		return nil, fmt.Errorf("factor: kphi = %v must be positive: %w", kphi, errs.ErrInvalidPrecondition)
	}
	if n.Bit(0) == 0 {
		return newResult(bigTwo, n), nil
	}

	r := kphi.TrailingZeroBits()
	s := new(big.Int).Rsh(kphi, r)

	g := big.NewInt(2)
	xm1 := new(big.Int)
	for w := 0; w < cfg.MaxWitnesses; w++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("factor: witness search: %w", err)
		}

		// 见证数本身和 n 有公因子
		if d := mod.GCD(g, n); isNontrivial(d, n) {
			return newResult(d, n), nil
		}

		x := mod.ModExp(g, s, n)
		for i := uint(0); i < r; i++ {
			xm1.Sub(x, bigOne)
			if d := mod.GCD(xm1, n); isNontrivial(d, n) {
				cfg.Logger.Debug(ctx, "factor found", logging.Int("witness", g), "round", i)
				return newResult(d, n), nil
			}
			x = mod.ModMul(x, x, n)
		}

		cfg.Logger.Debug(ctx, "witness failed", logging.Int("witness", g))
		g = cfg.Primes.NextPrime(g)
	}
	return nil, fmt.Errorf("factor: %d witnesses tried for n = %v: %w", cfg.MaxWitnesses, n, errs.ErrFactorizationFailed)
}

// FromED 用 RSA 私钥指数分解 n：kphi = e*d - 1。e 为 nil 时取 65537
func FromED(ctx context.Context, n, d, e *big.Int, cfg *Config) (*Result, error) {
	if d == nil {
		return nil, fmt.Errorf("factor: nil private exponent: %w", errs.ErrInvalidPrecondition)
	}
	if e == nil {
		e = DefaultPublicExponent
	}
	kphi := new(big.Int).Mul(e, d)
	kphi.Sub(kphi, bigOne)
	return FromKPhi(ctx, n, kphi, cfg)
}

// 1 < d < n
func isNontrivial(d, n *big.Int) bool {
	return d.Cmp(bigOne) > 0 && d.Cmp(n) < 0
}
