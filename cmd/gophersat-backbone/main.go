// Command gophersat-backbone reads a DIMACS CNF file and prints the
// positive, negative and optional backbone variables for a given set of
// relevant variable indices.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crillab/gophersat-backbone/backbone"
	"github.com/crillab/gophersat-backbone/bf"
	"github.com/crillab/gophersat-backbone/solver"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	relevantFlag []int
	verboseFlag  bool

	cfg = backbone.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "gophersat-backbone [dimacs file]",
	Short: "Compute the backbone of a DIMACS CNF formula",
	Long: `gophersat-backbone reads a DIMACS CNF file, computes the positive,
negative and optional backbone among the given relevant variables, and
prints the three sets.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackbone,
}

func init() {
	flags := rootCmd.Flags()
	flags.IntSliceVar(&relevantFlag, "relevant", nil, "DIMACS variable indices to project the backbone onto (default: all variables in the file)")
	flags.BoolVar(&verboseFlag, "verbose", false, "log solver diagnostics at debug level")
	flags.BoolVar(&cfg.InitialUBCheckForRotatableLiterals, "initial-ub-rotatable", cfg.InitialUBCheckForRotatableLiterals, "drop rotatable literals from the initial candidate set")
	flags.BoolVar(&cfg.InitialLBCheckForUPZeroLiterals, "initial-lb-up-zero", cfg.InitialLBCheckForUPZeroLiterals, "commit level-0 relevant variables before the main loop")
	flags.BoolVar(&cfg.CheckForUPZeroLiterals, "check-up-zero", cfg.CheckForUPZeroLiterals, "commit level-0 candidates during refinement")
	flags.BoolVar(&cfg.CheckForComplementModelLiterals, "check-complement-model", cfg.CheckForComplementModelLiterals, "drop candidates contradicted by the latest model")
	flags.BoolVar(&cfg.CheckForRotatableLiterals, "check-rotatable", cfg.CheckForRotatableLiterals, "drop rotatable candidates during refinement")
}

func runBackbone(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	if verboseFlag {
		log.SetLevel(logrus.DebugLevel)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("gophersat-backbone: %w", err)
	}
	defer f.Close()

	engine := solver.New()
	engine.SetLogger(log)
	vars := bf.NewVars(engine)

	nbVars, err := installDimacs(engine, vars, f)
	if err != nil {
		return fmt.Errorf("gophersat-backbone: %w", err)
	}

	relevant := relevantFlag
	if len(relevant) == 0 {
		relevant = make([]int, nbVars)
		for i := range relevant {
			relevant[i] = i + 1
		}
	}
	names := make([]string, len(relevant))
	for i, idx := range relevant {
		names[i] = dimacsName(idx)
	}

	result, err := backbone.Compute(log, engine, vars, nil, names, cfg)
	if err != nil {
		if err == backbone.ErrUnsatisfiable {
			fmt.Println("UNSAT")
			return nil
		}
		return fmt.Errorf("gophersat-backbone: %w", err)
	}

	fmt.Printf("positive: %s\n", strings.Join(result.Positive, " "))
	fmt.Printf("negative: %s\n", strings.Join(result.Negative, " "))
	fmt.Printf("optional: %s\n", strings.Join(result.Optional, " "))
	return nil
}

func dimacsName(idx int) string { return "x" + strconv.Itoa(idx) }

// installDimacs reads a minimal DIMACS CNF file (skipping comment and
// problem lines) and installs each clause into engine through vars,
// naming variable k as dimacsName(k). It returns the variable count
// announced by the "p cnf" line.
func installDimacs(engine *solver.Solver, vars *bf.Vars, f *os.File) (nbVars int, err error) {
	scanner := bufio.NewScanner(f)
	var clause []solver.Lit
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "c") {
			continue
		}
		if strings.HasPrefix(line, "p") {
			fields := strings.Fields(line)
			if len(fields) >= 3 {
				nbVars, err = strconv.Atoi(fields[2])
				if err != nil {
					return 0, fmt.Errorf("invalid problem line %q: %w", line, err)
				}
			}
			continue
		}
		for _, tok := range strings.Fields(line) {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return 0, fmt.Errorf("invalid literal %q: %w", tok, err)
			}
			if n == 0 {
				engine.AddClause(clause)
				clause = nil
				continue
			}
			idx := n
			if idx < 0 {
				idx = -idx
			}
			v := vars.Variable(dimacsName(idx))
			clause = append(clause, solver.MkLit(v, n < 0))
		}
	}
	return nbVars, scanner.Err()
}
