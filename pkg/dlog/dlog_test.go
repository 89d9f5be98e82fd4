package dlog

import (
	"bytes"
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"testing"

	"nt-crypto/pkg/errs"
	"nt-crypto/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

// ================= baby-step / giant-step =================

func TestBabyGiant(t *testing.T) {
	ctx := context.Background()

	t.Run("2^x ≡ 9 (mod 11)", func(t *testing.T) {
		x, err := BabyGiant(ctx, big.NewInt(2), big.NewInt(9), big.NewInt(11), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(6), x.Int64())
	})

	t.Run("原根往返", func(t *testing.T) {
		// 2 是模 101 的原根，阶为 100
		g, p := big.NewInt(2), big.NewInt(101)
		for e := int64(0); e < 100; e++ {
			y := new(big.Int).Exp(g, big.NewInt(e), p)
			x, err := BabyGiant(ctx, g, y, p, nil, nil)
			require.NoError(t, err, "e=%d", e)
			require.Equal(t, e, x.Int64(), "e=%d", e)
		}
	})

	t.Run("已知子群阶", func(t *testing.T) {
		// 2^10 mod 101 的阶为 10
		p := big.NewInt(101)
		g := new(big.Int).Exp(big.NewInt(2), big.NewInt(10), p)
		for e := int64(0); e < 10; e++ {
			y := new(big.Int).Exp(g, big.NewInt(e), p)
			x, err := BabyGiant(ctx, g, y, p, big.NewInt(10), nil)
			require.NoError(t, err)
			require.Equal(t, e, x.Int64())
		}
	})

	t.Run("低阶元素返回最小指数", func(t *testing.T) {
		// 10 ≡ -1 (mod 11)，阶为 2
		x, err := BabyGiant(ctx, big.NewInt(10), big.NewInt(10), big.NewInt(11), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), x.Int64())

		x, err = BabyGiant(ctx, big.NewInt(10), big.NewInt(1), big.NewInt(11), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), x.Int64())
	})

	t.Run("y 不在子群中", func(t *testing.T) {
		_, err := BabyGiant(ctx, big.NewInt(10), big.NewInt(2), big.NewInt(11), nil, nil)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("解超出搜索范围", func(t *testing.T) {
		// q = 4 时只搜索 [0, 4)，而 2^6 ≡ 9
		_, err := BabyGiant(ctx, big.NewInt(2), big.NewInt(9), big.NewInt(11), big.NewInt(4), nil)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("输入未约化", func(t *testing.T) {
		x, err := BabyGiant(ctx, big.NewInt(13), big.NewInt(-2), big.NewInt(11), nil, nil)
		require.NoError(t, err)
		// 13 ≡ 2，-2 ≡ 9
		assert.Equal(t, int64(6), x.Int64())
	})

	t.Run("40 位素数", func(t *testing.T) {
		p := big.NewInt(1004609584801)
		g := big.NewInt(38)
		e, err := rand.Int(rand.Reader, big.NewInt(1<<20))
		require.NoError(t, err)
		y := new(big.Int).Exp(g, e, p)

		// 已知 x < 2^20 时用 q = 2^20 缩小搜索范围
		x, err := BabyGiant(ctx, g, y, p, big.NewInt(1<<20), nil)
		require.NoError(t, err)
		assert.Equal(t, 0, x.Cmp(e))
	})
}

func TestBabyGiant_InvalidInput(t *testing.T) {
	ctx := context.Background()

	t.Run("模数过小", func(t *testing.T) {
		_, err := BabyGiant(ctx, big.NewInt(2), big.NewInt(1), big.NewInt(1), nil, nil)
		assert.ErrorIs(t, err, errs.ErrInvalidPrecondition)
	})

	t.Run("g 不可逆", func(t *testing.T) {
		_, err := BabyGiant(ctx, big.NewInt(22), big.NewInt(1), big.NewInt(11), nil, nil)
		assert.ErrorIs(t, err, errs.ErrInvalidPrecondition)
	})

	t.Run("子群阶非正", func(t *testing.T) {
		_, err := BabyGiant(ctx, big.NewInt(2), big.NewInt(9), big.NewInt(11), big.NewInt(0), nil)
		assert.ErrorIs(t, err, errs.ErrInvalidPrecondition)
	})

	t.Run("nil 参数", func(t *testing.T) {
		_, err := BabyGiant(ctx, nil, big.NewInt(9), big.NewInt(11), nil, nil)
		assert.ErrorIs(t, err, errs.ErrInvalidPrecondition)
	})
}

func TestBabyGiant_Budget(t *testing.T) {
	cfg := &Config{MaxTableSize: 3}
	_, err := BabyGiant(context.Background(), big.NewInt(2), big.NewInt(9), big.NewInt(11), nil, cfg)
	assert.ErrorIs(t, err, errs.ErrBudgetExceeded)

	cfg.MaxTableSize = 4
	x, err := BabyGiant(context.Background(), big.NewInt(2), big.NewInt(9), big.NewInt(11), nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(6), x.Int64())
}

func TestBabyGiant_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BabyGiant(ctx, big.NewInt(2), big.NewInt(9), big.NewInt(11), nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCeilSqrt(t *testing.T) {
	cases := map[int64]int64{1: 1, 2: 2, 4: 2, 5: 3, 9: 3, 10: 4, 11: 4, 100: 10, 101: 11}
	for n, want := range cases {
		assert.Equal(t, want, ceilSqrt(big.NewInt(n)).Int64(), "n=%d", n)
	}
}

// ================= Pohlig–Hellman =================

func TestPohligHellman(t *testing.T) {
	ctx := context.Background()

	t.Run("p = 31，因子 [2,3,5]", func(t *testing.T) {
		g, p := big.NewInt(3), big.NewInt(31)
		for e := int64(0); e < 30; e++ {
			y := new(big.Int).Exp(g, big.NewInt(e), p)
			x, err := PohligHellman(ctx, g, y, ints(2, 3, 5), nil)
			require.NoError(t, err, "e=%d", e)
			require.Equal(t, e, x.Int64(), "e=%d", e)
		}
	})

	t.Run("p = 4621，含素数幂 4", func(t *testing.T) {
		g, p := big.NewInt(2), big.NewInt(4621)
		for _, e := range []int64{0, 1, 2, 77, 1000, 4619} {
			y := new(big.Int).Exp(g, big.NewInt(e), p)
			x, err := PohligHellman(ctx, g, y, ints(4, 3, 5, 7, 11), nil)
			require.NoError(t, err)
			assert.Equal(t, e, x.Int64())
		}
	})

	t.Run("p = 1004609584801", func(t *testing.T) {
		g, p := big.NewInt(38), big.NewInt(1004609584801)
		factors := ints(32, 27, 25, 23, 31, 37, 41, 43)
		pm1 := new(big.Int).Sub(p, bigOne)
		for i := 0; i < 5; i++ {
			e, err := rand.Int(rand.Reader, pm1)
			require.NoError(t, err)
			y := new(big.Int).Exp(g, e, p)

			x, err := PohligHellman(ctx, g, y, factors, &Config{Parallelism: 3})
			require.NoError(t, err)
			assert.Equal(t, 0, x.Cmp(e), "期望 %v, 得到 %v", e, x)
		}
	})

	t.Run("非原根：结果满足方程", func(t *testing.T) {
		// 2 模 31 的阶为 5
		g, p := big.NewInt(2), big.NewInt(31)
		y := big.NewInt(16)
		x, err := PohligHellman(ctx, g, y, ints(2, 3, 5), nil)
		require.NoError(t, err)
		assert.Equal(t, 0, new(big.Int).Exp(g, x, p).Cmp(y))
	})

	t.Run("y 不在 g 生成的子群中", func(t *testing.T) {
		// 5 模 31 的阶为 3，3 是原根
		_, err := PohligHellman(ctx, big.NewInt(5), big.NewInt(3), ints(2, 3, 5), nil)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("日志输出子问题结果", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
		_, err := PohligHellman(ctx, big.NewInt(3), big.NewInt(7), ints(2, 3, 5), &Config{Logger: logger, Parallelism: 1})
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "subgroup solved")
		assert.Contains(t, buf.String(), "p=31")
	})
}

func TestPohligHellman_InvalidFactors(t *testing.T) {
	ctx := context.Background()
	g, y := big.NewInt(3), big.NewInt(7)

	cases := map[string][]*big.Int{
		"空列表":      nil,
		"∏+1 不是素数": ints(2, 3, 5, 7, 11, 13),
		"因子不互素":    ints(2, 2, 3),
		"因子为 1":    ints(1, 30),
		"nil 因子":   {nil, big.NewInt(30)},
	}
	for name, factors := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := PohligHellman(ctx, g, y, factors, nil)
			assert.ErrorIs(t, err, errs.ErrInvalidPrecondition)
		})
	}
}

func TestPohligHellman_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PohligHellman(ctx, big.NewInt(3), big.NewInt(7), ints(2, 3, 5), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGroupModulus(t *testing.T) {
	p, err := GroupModulus(ints(16, 27, 5), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2161), p.Int64())

	// 不修改因子
	factors := ints(2, 3, 5)
	p, err = GroupModulus(factors, DefaultConfig().Primes)
	require.NoError(t, err)
	assert.Equal(t, int64(31), p.Int64())
	assert.Equal(t, ints(2, 3, 5), factors)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NotZero(t, cfg.MaxTableSize)
	assert.Positive(t, cfg.Parallelism)
	assert.NotNil(t, cfg.Logger)
	assert.NotNil(t, cfg.Primes)

	filled := (&Config{MaxTableSize: 7}).withDefaults()
	assert.Equal(t, uint64(7), filled.MaxTableSize)
	assert.Equal(t, cfg.Parallelism, filled.Parallelism)
	assert.NotNil(t, filled.Logger)
	assert.NotNil(t, filled.Primes)
}

func BenchmarkBabyGiant_40bit(b *testing.B) {
	p := big.NewInt(1004609584801)
	g := big.NewInt(38)
	y := new(big.Int).Exp(g, big.NewInt(987654321), p)
	q := big.NewInt(1 << 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BabyGiant(context.Background(), g, y, p, q, nil); err != nil {
			b.Fatalf("求解失败: %v", err)
		}
	}
}
