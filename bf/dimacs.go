package bf

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// numbering assigns dense DIMACS integers to variable names, independent
// of any engine: Dimacs only needs to write a static file, never to solve.
type numbering struct {
	all map[variable]int // every variable, including Tseitin dummies
	pb  map[variable]int // only the variables named in the original formula
}

func (n *numbering) litValue(l lit) int {
	val, ok := n.all[l.v]
	if !ok {
		val = len(n.all) + 1
		n.all[l.v] = val
		n.pb[l.v] = val
	}
	if l.signed {
		return -val
	}
	return val
}

func (n *numbering) dummy() int {
	val := len(n.all) + 1
	n.all[dummyVar(fmt.Sprintf("dummy-%d", val))] = val
	return val
}

// cnfInts flattens an NNF formula into DIMACS-style int clauses, the same
// Tseitin encoding Install applies when talking to a live engine.
func cnfInts(f Formula, n *numbering) [][]int {
	switch f := f.(type) {
	case lit:
		return [][]int{{n.litValue(f)}}
	case and:
		var res [][]int
		for _, sub := range f {
			res = append(res, cnfInts(sub, n)...)
		}
		return res
	case or:
		var res [][]int
		var lits []int
		for _, sub := range f {
			switch sub := sub.(type) {
			case lit:
				lits = append(lits, n.litValue(sub))
			case and:
				d := n.dummy()
				lits = append(lits, d)
				for _, sub2 := range sub {
					l := sub2.(lit)
					res = append(res, []int{n.litValue(l), -d})
				}
			default:
				panic("bf: unexpected or-in-or after NNF conversion")
			}
		}
		res = append(res, lits)
		return res
	case trueConst:
		return [][]int{}
	case falseConst:
		return [][]int{{}}
	default:
		panic("bf: invalid NNF formula")
	}
}

// Dimacs writes the DIMACS CNF version of the formula on w.
// f is first converted to CNF. The original name of each variable is
// associated with its DIMACS integer counterpart in comments, between the
// prolog and the set of clauses. For instance, if the variable "a" is
// associated with the index 1, there will be a comment line "c a=1".
func Dimacs(f Formula, w io.Writer) error {
	n := &numbering{all: make(map[variable]int), pb: make(map[variable]int)}
	clauses := cnfInts(f.nnf(), n)
	prefix := fmt.Sprintf("p cnf %d %d\n", len(n.all), len(clauses))
	if _, err := io.WriteString(w, prefix); err != nil {
		return fmt.Errorf("bf: could not write DIMACS output: %w", err)
	}
	var pbVars []string
	for v := range n.pb {
		if !v.dummy {
			pbVars = append(pbVars, v.name)
		}
	}
	sort.Strings(pbVars)
	for _, name := range pbVars {
		idx := n.pb[pbVar(name)]
		line := fmt.Sprintf("c %s=%d\n", name, idx)
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("bf: could not write DIMACS output: %w", err)
		}
	}
	for _, clause := range clauses {
		strClause := make([]string, len(clause))
		for i, l := range clause {
			strClause[i] = strconv.Itoa(l)
		}
		line := fmt.Sprintf("%s 0\n", strings.Join(strClause, " "))
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("bf: could not write DIMACS output: %w", err)
		}
	}
	return nil
}
