package prime

import (
	"math/big"
)

// ================= 公共类型 & 配置 =================

// Config 控制素性判定的强度
type Config struct {
	// Miller-Rabin 轮数（ProbablyPrime 的参数，同时附带一次 Baillie-PSW）
	MillerRabinRounds int

	// 是否在 Miller-Rabin 前先做 Fermat(base=2) 预筛
	UseFermat bool
}

func DefaultConfig() *Config {
	return &Config{
		MillerRabinRounds: 20,
		UseFermat:         true,
	}
}

// Oracle 提供求解器需要的三种外部能力：勒让德符号、素性判定、下一个素数。
// 零值（以及 nil 指针）按 DefaultConfig 工作。Oracle 只读，可以并发使用。
type Oracle struct {
	filters []filter
}

// NewOracle 按 cfg 构造 oracle，cfg 为 nil 时使用 DefaultConfig
func NewOracle(cfg *Config) *Oracle {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Oracle{filters: buildFilters(cfg)}
}

// Default 是使用默认配置的共享 oracle
var Default = NewOracle(nil)

// ================= 内部常量 =================

var (
	bigOne   = big.NewInt(1)
	bigTwo   = big.NewInt(2)
	bigThree = big.NewInt(3)
)

// 试除用的小素数表
var smallPrimes = []*big.Int{
	big.NewInt(3), big.NewInt(5), big.NewInt(7), big.NewInt(11),
	big.NewInt(13), big.NewInt(17), big.NewInt(19), big.NewInt(23),
	big.NewInt(29), big.NewInt(31), big.NewInt(37), big.NewInt(41),
	big.NewInt(43), big.NewInt(47), big.NewInt(53),
}

// ================= 面向调用者的入口 =================

// IsPrime 判断 n 是否（大概率）为素数
func (o *Oracle) IsPrime(n *big.Int) bool {
	if n.Cmp(bigTwo) < 0 {
		return false
	}
	if n.Cmp(bigThree) <= 0 {
		return true
	}
	if n.Bit(0) == 0 {
		return false
	}
	return runFilters(n, o.pipeline())
}

// NextPrime 返回严格大于 n 的最小素数，不修改 n
func (o *Oracle) NextPrime(n *big.Int) *big.Int {
	if n.Cmp(bigTwo) < 0 {
		return big.NewInt(2)
	}

	// 从 n+1 开始，只扫描奇数
	candidate := new(big.Int).Add(n, bigOne)
	if candidate.Cmp(bigThree) <= 0 {
		return candidate
	}
	if candidate.Bit(0) == 0 {
		candidate.Add(candidate, bigOne)
	}
	filters := o.pipeline()
	for !runFilters(candidate, filters) {
		candidate.Add(candidate, bigTwo)
	}
	return candidate
}

// Legendre 返回 (a/p)，p 为奇素数时即勒让德符号；p = 2 时返回 a mod 2
func (o *Oracle) Legendre(a, p *big.Int) int {
	if p.Cmp(bigTwo) == 0 {
		return int(a.Bit(0))
	}
	return big.Jacobi(new(big.Int).Mod(a, p), p)
}

// ================= filter pipeline =================

type filter func(n *big.Int) bool

// 零值 Oracle 没有 filters，退回默认流水线
var defaultFilters = buildFilters(DefaultConfig())

func (o *Oracle) pipeline() []filter {
	if o == nil || len(o.filters) == 0 {
		return defaultFilters
	}
	return o.filters
}

func buildFilters(cfg *Config) []filter {
	var filters []filter

	// 1) 小素数试除，过滤明显合数
	filters = append(filters, smallPrimeFilter())

	// 2) 可选：Fermat base=2 预筛
	if cfg.UseFermat {
		filters = append(filters, fermatBase2)
	}

	// 3) 最终：Miller-Rabin
	filters = append(filters, mrFilter(cfg.MillerRabinRounds))

	return filters
}

// 按顺序执行 filters，有一个不过就返回 false
func runFilters(n *big.Int, filters []filter) bool {
	for _, f := range filters {
		if !f(n) {
			return false
		}
	}
	return true
}

// 对奇数 n 用小素数试除；n 本身就是小素数时直接通过
func smallPrimeFilter() filter {
	return func(n *big.Int) bool {
		remainder := new(big.Int)
		for _, smallPrime := range smallPrimes {
			if n.Cmp(smallPrime) <= 0 {
				return true
			}
			remainder.Mod(n, smallPrime)
			if remainder.Sign() == 0 {
				return false
			}
		}
		return true
	}
}

func mrFilter(rounds int) filter {
	return func(n *big.Int) bool {
		return n.ProbablyPrime(rounds)
	}
}

// fermatBase2：2^(n-1) ≡ 1 (mod n) ?
// 不通过 => 一定合数；通过 => 可能是素数，仅作预筛。
func fermatBase2(n *big.Int) bool {
	if n.Cmp(bigTwo) < 0 {
		return false
	}
	if n.Cmp(bigThree) <= 0 {
		return true
	}
	if n.Bit(0) == 0 {
		return false
	}

	exponent := new(big.Int).Sub(n, bigOne)
	result := new(big.Int).Exp(bigTwo, exponent, n)
	return result.Cmp(bigOne) == 0
}
