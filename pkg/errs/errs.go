package errs

import "errors"

// 各个求解器共用的错误类型，调用方用 errors.Is 判断
var (
	// ErrNoResidue 表示 a 不是模 p 的二次剩余，平方根不存在
	ErrNoResidue = errors.New("no quadratic residue")

	// ErrInfeasible 表示同余方程组互相矛盾，无解
	ErrInfeasible = errors.New("congruence system is infeasible")

	// ErrNotFound 表示在搜索范围内没有找到离散对数
	ErrNotFound = errors.New("discrete logarithm not found")

	// ErrFactorizationFailed 表示见证数搜索耗尽仍未分解成功
	ErrFactorizationFailed = errors.New("factorization failed")

	// ErrInvalidPrecondition 表示输入不满足前置条件（长度不一致、模数为零、p 不是素数等）
	ErrInvalidPrecondition = errors.New("invalid precondition")

	// ErrBudgetExceeded 表示所需的计算量超过了配置的上限
	ErrBudgetExceeded = errors.New("iteration budget exceeded")
)
