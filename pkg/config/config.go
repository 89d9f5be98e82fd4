package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"nt-crypto/pkg/dlog"
	"nt-crypto/pkg/factor"
	"nt-crypto/pkg/logging"
	"nt-crypto/pkg/prime"
)

// 配置键
const (
	KeyMaxTableSize  = "dlog.max_table_size"
	KeyParallelism   = "dlog.parallelism"
	KeyMaxWitnesses  = "factor.max_witnesses"
	KeyMillerRabin   = "prime.miller_rabin_rounds"
	KeyFermatPrefilt = "prime.fermat"
	KeyLogLevel      = "log.level"
)

// Config 是 ntkit 的全部可配置项
type Config struct {
	MaxTableSize      uint64
	Parallelism       int
	MaxWitnesses      int
	MillerRabinRounds int
	UseFermat         bool
	LogLevel          string
}

// Load 读取配置。path 非空时只读该文件；否则在默认目录里找 ntkit.yaml，找不到不算错误。
// 环境变量 NTKIT_DLOG_MAX_TABLE_SIZE 等覆盖文件中的值。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NTKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// 配置文件名，不加扩展
		v.SetConfigName("ntkit")
		v.SetConfigType("yaml")
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回全部取默认值的配置，不读文件也不读环境变量
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		MaxTableSize:      v.GetUint64(KeyMaxTableSize),
		Parallelism:       v.GetInt(KeyParallelism),
		MaxWitnesses:      v.GetInt(KeyMaxWitnesses),
		MillerRabinRounds: v.GetInt(KeyMillerRabin),
		UseFermat:         v.GetBool(KeyFermatPrefilt),
		LogLevel:          v.GetString(KeyLogLevel),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyMaxTableSize, uint64(1<<24))
	v.SetDefault(KeyParallelism, runtime.NumCPU())
	v.SetDefault(KeyMaxWitnesses, 128)
	v.SetDefault(KeyMillerRabin, 20)
	v.SetDefault(KeyFermatPrefilt, true)
	v.SetDefault(KeyLogLevel, "warn")
}

func searchPaths() []string {
	paths := []string{"/etc/ntkit"}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" && homeDir != "" {
		xdgConfigHome = filepath.Join(homeDir, ".config")
	}
	if xdgConfigHome != "" {
		paths = append(paths, filepath.Join(xdgConfigHome, "ntkit"))
	}
	if homeDir != "" {
		paths = append(paths, filepath.Join(homeDir, ".ntkit"))
	}
	return append(paths, ".")
}

func (c *Config) validate() error {
	if c.MaxTableSize == 0 {
		return fmt.Errorf("config: %s must be positive", KeyMaxTableSize)
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("config: %s must be positive", KeyParallelism)
	}
	if c.MaxWitnesses <= 0 {
		return fmt.Errorf("config: %s must be positive", KeyMaxWitnesses)
	}
	if c.MillerRabinRounds < 0 {
		return fmt.Errorf("config: %s must not be negative", KeyMillerRabin)
	}
	return nil
}

// Oracle 按配置构造素数 oracle
func (c *Config) Oracle() *prime.Oracle {
	return prime.NewOracle(&prime.Config{
		MillerRabinRounds: c.MillerRabinRounds,
		UseFermat:         c.UseFermat,
	})
}

// DLog 返回离散对数求解器配置。logger、oracle 为 nil 时由求解器补上默认值
func (c *Config) DLog(logger logging.Logger, oracle dlog.PrimalityOracle) *dlog.Config {
	return &dlog.Config{
		MaxTableSize: c.MaxTableSize,
		Parallelism:  c.Parallelism,
		Logger:       logger,
		Primes:       oracle,
	}
}

// Factor 返回分解器配置
func (c *Config) Factor(logger logging.Logger, oracle factor.PrimeStepper) *factor.Config {
	return &factor.Config{
		MaxWitnesses: c.MaxWitnesses,
		Primes:       oracle,
		Logger:       logger,
	}
}
