package dlog

import (
	"math/big"
	"runtime"

	"nt-crypto/pkg/logging"
	"nt-crypto/pkg/prime"
)

// PrimalityOracle 判断一个数是否为素数，Pohlig–Hellman 用它检查 ∏q + 1
type PrimalityOracle interface {
	IsPrime(n *big.Int) bool
}

// Config 控制离散对数求解器的资源上限
type Config struct {
	// baby-step 表项数上限，⌈√q⌉ 超过它时返回 errs.ErrBudgetExceeded
	MaxTableSize uint64

	// Pohlig–Hellman 并发求解子问题的 goroutine 数
	Parallelism int

	Logger logging.Logger
	Primes PrimalityOracle
}

func DefaultConfig() *Config {
	return &Config{
		MaxTableSize: 1 << 24,
		Parallelism:  runtime.NumCPU(),
		Logger:       logging.Nop(),
		Primes:       prime.Default,
	}
}

// withDefaults 返回补齐零值字段后的副本，不修改 cfg
func (cfg *Config) withDefaults() *Config {
	def := DefaultConfig()
	if cfg == nil {
		return def
	}
	out := *cfg
	if out.MaxTableSize == 0 {
		out.MaxTableSize = def.MaxTableSize
	}
	if out.Parallelism <= 0 {
		out.Parallelism = def.Parallelism
	}
	out.Logger = logging.OrNop(out.Logger)
	if out.Primes == nil {
		out.Primes = def.Primes
	}
	return &out
}
