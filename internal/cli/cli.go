package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/fatih/color"
	"github.com/rodaine/table"

	"nt-crypto/pkg/config"
	"nt-crypto/pkg/crt"
	"nt-crypto/pkg/dlog"
	"nt-crypto/pkg/errs"
	"nt-crypto/pkg/factor"
	"nt-crypto/pkg/logging"
	"nt-crypto/pkg/mod"
)

// 退出码
const (
	ExitOK       = 0
	ExitNoResult = 1 // 无解、没找到、分解失败
	ExitUsage    = 2 // 参数或前置条件错误
)

type env struct {
	ctx    context.Context
	cfg    *config.Config
	logger logging.Logger
	dlog   *dlog.Config
	factor *factor.Config
	out    io.Writer
}

// Run 解析 args（args[0] 为程序名）并执行对应子命令，返回退出码
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	parser := argparse.NewParser("ntkit", "Number-theory toolkit for cryptanalysis")
	configPath := parser.String("c", "config", &argparse.Options{Help: "Path to config file (default: search ntkit.yaml)"})
	logLevel := parser.String("", "log-level", &argparse.Options{Help: "Override log level [debug, info, warn, error]"})

	egcdCmd := parser.NewCommand("egcd", "Extended Euclid: a*x + b*y = gcd(a, b)")
	egcdA := egcdCmd.String("a", "a", &argparse.Options{Required: true, Help: "Integer a"})
	egcdB := egcdCmd.String("b", "b", &argparse.Options{Required: true, Help: "Integer b"})

	sqrtCmd := parser.NewCommand("sqrt", "Tonelli-Shanks square root modulo a prime")
	sqrtA := sqrtCmd.String("a", "a", &argparse.Options{Required: true, Help: "Residue a"})
	sqrtP := sqrtCmd.String("p", "prime", &argparse.Options{Required: true, Help: "Prime modulus p"})

	crtCmd := parser.NewCommand("crt", "Chinese remainder theorem, moduli need not be coprime")
	crtR := crtCmd.StringList("r", "residue", &argparse.Options{Required: true, Help: "Residue, repeat for each congruence"})
	crtM := crtCmd.StringList("m", "modulus", &argparse.Options{Required: true, Help: "Modulus, repeat for each congruence"})

	bsgsCmd := parser.NewCommand("bsgs", "Baby-step giant-step discrete log: g^x = y (mod p)")
	bsgsG := bsgsCmd.String("g", "generator", &argparse.Options{Required: true, Help: "Generator g"})
	bsgsY := bsgsCmd.String("y", "target", &argparse.Options{Required: true, Help: "Target y"})
	bsgsP := bsgsCmd.String("p", "modulus", &argparse.Options{Required: true, Help: "Modulus p"})
	bsgsQ := bsgsCmd.String("q", "order", &argparse.Options{Help: "Order of g if known (default: p)"})

	phCmd := parser.NewCommand("pohlig", "Pohlig-Hellman discrete log in a group of order prod(factors) = p-1")
	phG := phCmd.String("g", "generator", &argparse.Options{Required: true, Help: "Generator g"})
	phY := phCmd.String("y", "target", &argparse.Options{Required: true, Help: "Target y"})
	phF := phCmd.StringList("f", "factor", &argparse.Options{Required: true, Help: "Pairwise coprime prime power, repeat for each factor"})

	kphiCmd := parser.NewCommand("kphi", "Factor semiprime n from a multiple of phi(n)")
	kphiN := kphiCmd.String("n", "modulus", &argparse.Options{Required: true, Help: "Semiprime n"})
	kphiK := kphiCmd.String("k", "kphi", &argparse.Options{Required: true, Help: "Positive multiple of phi(n)"})

	rsaCmd := parser.NewCommand("rsa", "Factor RSA modulus n from private exponent d")
	rsaN := rsaCmd.String("n", "modulus", &argparse.Options{Required: true, Help: "RSA modulus n"})
	rsaD := rsaCmd.String("d", "private", &argparse.Options{Required: true, Help: "Private exponent d"})
	rsaE := rsaCmd.String("e", "public", &argparse.Options{Default: "65537", Help: "Public exponent e"})

	// 帮助信息写到注入的 stdout，不让 argparse 直接 os.Exit
	parser.ExitOnHelp(false)
	commands := map[string]*argparse.Command{
		"egcd": egcdCmd, "sqrt": sqrtCmd, "crt": crtCmd, "bsgs": bsgsCmd,
		"pohlig": phCmd, "kphi": kphiCmd, "rsa": rsaCmd,
	}
	if helpRequested(args) {
		usage := parser.Usage(nil)
		if len(args) > 1 {
			if cmd, ok := commands[args[1]]; ok {
				usage = cmd.Usage(nil)
			}
		}
		fmt.Fprint(stdout, usage)
		return ExitOK
	}

	if err := parser.Parse(args); err != nil {
		fmt.Fprint(stderr, parser.Usage(err))
		return ExitUsage
	}

	e, err := newEnv(ctx, *configPath, *logLevel, stdout, stderr)
	if err != nil {
		printError(stderr, err)
		return ExitUsage
	}
	e.logger.Debug(ctx, "config loaded",
		"max_table_size", e.cfg.MaxTableSize, "parallelism", e.cfg.Parallelism, "max_witnesses", e.cfg.MaxWitnesses)

	switch {
	case egcdCmd.Happened():
		err = e.egcd(*egcdA, *egcdB)
	case sqrtCmd.Happened():
		err = e.sqrt(*sqrtA, *sqrtP)
	case crtCmd.Happened():
		err = e.crt(*crtR, *crtM)
	case bsgsCmd.Happened():
		err = e.bsgs(*bsgsG, *bsgsY, *bsgsP, *bsgsQ)
	case phCmd.Happened():
		err = e.pohlig(*phG, *phY, *phF)
	case kphiCmd.Happened():
		err = e.kphi(*kphiN, *kphiK)
	case rsaCmd.Happened():
		err = e.rsa(*rsaN, *rsaD, *rsaE)
	}
	if err != nil {
		printError(stderr, err)
		return exitCode(err)
	}
	return ExitOK
}

func newEnv(ctx context.Context, configPath, logLevel string, stdout, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)})
	logger := logging.New(slog.New(handler))
	oracle := cfg.Oracle()

	return &env{
		ctx:    ctx,
		cfg:    cfg,
		logger: logger,
		dlog:   cfg.DLog(logger, oracle),
		factor: cfg.Factor(logger, oracle),
		out:    stdout,
	}, nil
}

// ================= 子命令 =================

func (e *env) egcd(aStr, bStr string) error {
	a, err := parseInt("a", aStr)
	if err != nil {
		return err
	}
	b, err := parseInt("b", bStr)
	if err != nil {
		return err
	}
	x, y, g := mod.ExtendedGCD(a, b)
	e.print([][2]any{{"x", x}, {"y", y}, {"gcd", g}})
	return nil
}

func (e *env) sqrt(aStr, pStr string) error {
	a, err := parseInt("a", aStr)
	if err != nil {
		return err
	}
	p, err := parseInt("p", pStr)
	if err != nil {
		return err
	}
	x, err := mod.SqrtWith(a, p, e.cfg.Oracle())
	if err != nil {
		return err
	}
	other := mod.ModSub(p, x, p)
	e.print([][2]any{{"x", x}, {"p - x", other}})
	return nil
}

func (e *env) crt(residues, moduli []string) error {
	A, err := parseInts("residue", residues)
	if err != nil {
		return err
	}
	M, err := parseInts("modulus", moduli)
	if err != nil {
		return err
	}
	X, Y, err := crt.Solve(A, M)
	if err != nil {
		return err
	}
	e.print([][2]any{{"x", X}, {"lcm", Y}})
	return nil
}

func (e *env) bsgs(gStr, yStr, pStr, qStr string) error {
	g, err := parseInt("g", gStr)
	if err != nil {
		return err
	}
	y, err := parseInt("y", yStr)
	if err != nil {
		return err
	}
	p, err := parseInt("p", pStr)
	if err != nil {
		return err
	}
	var q *big.Int
	if qStr != "" {
		if q, err = parseInt("q", qStr); err != nil {
			return err
		}
	}
	x, err := dlog.BabyGiant(e.ctx, g, y, p, q, e.dlog)
	if err != nil {
		return err
	}
	e.print([][2]any{{"x", x}})
	return nil
}

func (e *env) pohlig(gStr, yStr string, factorStrs []string) error {
	g, err := parseInt("g", gStr)
	if err != nil {
		return err
	}
	y, err := parseInt("y", yStr)
	if err != nil {
		return err
	}
	factors, err := parseInts("factor", factorStrs)
	if err != nil {
		return err
	}
	x, err := dlog.PohligHellman(e.ctx, g, y, factors, e.dlog)
	if err != nil {
		return err
	}
	order := big.NewInt(1)
	for _, f := range factors {
		order.Mul(order, f)
	}
	e.print([][2]any{{"x", x}, {"order", order}, {"p", new(big.Int).Add(order, big.NewInt(1))}})
	return nil
}

func (e *env) kphi(nStr, kStr string) error {
	n, err := parseInt("n", nStr)
	if err != nil {
		return err
	}
	k, err := parseInt("kphi", kStr)
	if err != nil {
		return err
	}
	res, err := factor.FromKPhi(e.ctx, n, k, e.factor)
	if err != nil {
		return err
	}
	e.print([][2]any{{"p", res.P}, {"q", res.Q}})
	return nil
}

func (e *env) rsa(nStr, dStr, eStr string) error {
	n, err := parseInt("n", nStr)
	if err != nil {
		return err
	}
	d, err := parseInt("d", dStr)
	if err != nil {
		return err
	}
	pub, err := parseInt("e", eStr)
	if err != nil {
		return err
	}
	res, err := factor.FromED(e.ctx, n, d, pub, e.factor)
	if err != nil {
		return err
	}
	e.print([][2]any{{"p", res.P}, {"q", res.Q}})
	return nil
}

// ================= 输出 & 解析 =================

func (e *env) print(rows [][2]any) {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()

	tbl := table.New("Name", "Value").WithWriter(e.out)
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)
	for _, row := range rows {
		tbl.AddRow(row[0], row[1])
	}
	tbl.Print()
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, color.New(color.FgRed, color.Bold).Sprint("error:"), err)
}

func helpRequested(args []string) bool {
	for _, arg := range args[min(len(args), 1):] {
		if arg == "-h" || arg == "--help" {
			return true
		}
	}
	return false
}

// parseInt 支持十进制以及 0x / 0o / 0b 前缀
func parseInt(name, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return nil, fmt.Errorf("%s: cannot parse %q as integer: %w", name, s, errs.ErrInvalidPrecondition)
	}
	return v, nil
}

func parseInts(name string, ss []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(ss))
	for i, s := range ss {
		v, err := parseInt(name, s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrNoResidue),
		errors.Is(err, errs.ErrInfeasible),
		errors.Is(err, errs.ErrNotFound),
		errors.Is(err, errs.ErrFactorizationFailed),
		errors.Is(err, errs.ErrBudgetExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return ExitNoResult
	default:
		return ExitUsage
	}
}
