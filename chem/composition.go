package chem

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ErrBadFormula indicates a formula string that could not be parsed.
var ErrBadFormula = errors.New("chem: invalid formula")

// amountTol is the tolerance used when comparing element amounts.
const amountTol = 1e-8

// Composition maps element symbols to positive amounts.
// The zero value is an empty composition.
type Composition struct {
	order []string // symbols in first-seen order, used for display
	amt   map[string]float64
}

// NewComposition builds a composition from an element→amount map.
// Non-positive amounts are dropped. Display order is alphabetical.
func NewComposition(amounts map[string]float64) Composition {
	c := Composition{amt: make(map[string]float64, len(amounts))}
	for el, a := range amounts {
		if a > amountTol {
			c.amt[el] = a
			c.order = append(c.order, el)
		}
	}
	sort.Strings(c.order)

	return c
}

// ParseFormula parses formulas such as "BaTiO3", "Li2O", "Ca(OH)2" or "Fe0.5O".
//
// Grammar: sequence of Element[amount] and (group)[amount] tokens; elements
// are an uppercase letter followed by lowercase letters; amounts are decimal.
// Parentheses nest to any depth using an explicit stack.
func ParseFormula(formula string) (Composition, error) {
	s := strings.ReplaceAll(formula, " ", "")
	if s == "" {
		return Composition{}, fmt.Errorf("%w: empty", ErrBadFormula)
	}

	type frame struct {
		order []string
		amt   map[string]float64
	}
	stack := []frame{{amt: make(map[string]float64)}}
	add := func(f *frame, el string, a float64) {
		if _, ok := f.amt[el]; !ok {
			f.order = append(f.order, el)
		}
		f.amt[el] += a
	}

	i := 0
	readNumber := func() (float64, error) {
		start := i
		for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
			i++
		}
		if start == i {
			return 1, nil
		}
		return strconv.ParseFloat(s[start:i], 64)
	}

	for i < len(s) {
		ch := rune(s[i])
		switch {
		case ch == '(' || ch == '[':
			stack = append(stack, frame{amt: make(map[string]float64)})
			i++
		case ch == ')' || ch == ']':
			if len(stack) < 2 {
				return Composition{}, fmt.Errorf("%w: unbalanced %q in %q", ErrBadFormula, ch, formula)
			}
			i++
			mult, err := readNumber()
			if err != nil {
				return Composition{}, fmt.Errorf("%w: %q: %v", ErrBadFormula, formula, err)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := &stack[len(stack)-1]
			for _, el := range top.order {
				add(parent, el, top.amt[el]*mult)
			}
		case unicode.IsUpper(ch):
			start := i
			i++
			for i < len(s) && unicode.IsLower(rune(s[i])) {
				i++
			}
			el := s[start:i]
			a, err := readNumber()
			if err != nil {
				return Composition{}, fmt.Errorf("%w: %q: %v", ErrBadFormula, formula, err)
			}
			add(&stack[len(stack)-1], el, a)
		default:
			return Composition{}, fmt.Errorf("%w: unexpected %q in %q", ErrBadFormula, ch, formula)
		}
	}
	if len(stack) != 1 {
		return Composition{}, fmt.Errorf("%w: unclosed group in %q", ErrBadFormula, formula)
	}

	root := stack[0]
	c := Composition{amt: make(map[string]float64, len(root.amt))}
	for _, el := range root.order {
		if root.amt[el] > amountTol {
			c.order = append(c.order, el)
			c.amt[el] = root.amt[el]
		}
	}
	if len(c.order) == 0 {
		return Composition{}, fmt.Errorf("%w: no elements in %q", ErrBadFormula, formula)
	}

	return c, nil
}

// MustParseFormula is ParseFormula that panics on error. Intended for tests
// and package-level fixtures.
func MustParseFormula(formula string) Composition {
	c, err := ParseFormula(formula)
	if err != nil {
		panic(err)
	}
	return c
}

// Elements returns the element symbols sorted alphabetically.
func (c Composition) Elements() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	sort.Strings(out)

	return out
}

// Amount returns the amount of el (0 when absent).
func (c Composition) Amount(el string) float64 { return c.amt[el] }

// NumAtoms returns the total number of atoms in the composition.
func (c Composition) NumAtoms() float64 {
	var n float64
	for _, a := range c.amt {
		n += a
	}
	return n
}

// IsEmpty reports whether the composition has no elements.
func (c Composition) IsEmpty() bool { return len(c.order) == 0 }

// Formula renders the composition in display order, omitting unit amounts.
func (c Composition) Formula() string {
	return render(c.order, c.amt, 1)
}

// ReducedFormula divides all amounts by their greatest common divisor when
// every amount is integral; otherwise the formula is returned unscaled.
func (c Composition) ReducedFormula() string {
	return render(c.order, c.amt, c.reductionFactor())
}

// Reduced returns the composition scaled by its reduction factor.
func (c Composition) Reduced() Composition {
	f := c.reductionFactor()
	out := Composition{order: append([]string(nil), c.order...), amt: make(map[string]float64, len(c.amt))}
	for el, a := range c.amt {
		out.amt[el] = a / f
	}
	return out
}

// Equal reports element-wise equality within a small tolerance.
func (c Composition) Equal(o Composition) bool {
	if len(c.amt) != len(o.amt) {
		return false
	}
	for el, a := range c.amt {
		if math.Abs(a-o.amt[el]) > amountTol {
			return false
		}
	}
	return true
}

// reductionFactor returns the integer GCD of the amounts, or 1 when any
// amount is fractional.
func (c Composition) reductionFactor() float64 {
	g := 0
	for _, a := range c.amt {
		r := math.Round(a)
		if math.Abs(a-r) > amountTol || r < 1 {
			return 1
		}
		g = gcd(g, int(r))
	}
	if g == 0 {
		return 1
	}
	return float64(g)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func render(order []string, amt map[string]float64, factor float64) string {
	var sb strings.Builder
	for _, el := range order {
		sb.WriteString(el)
		a := amt[el] / factor
		if math.Abs(a-1) > amountTol {
			sb.WriteString(strconv.FormatFloat(roundAmount(a), 'f', -1, 64))
		}
	}
	return sb.String()
}

// roundAmount trims floating noise such as 1.9999999999 to 2.
func roundAmount(a float64) float64 {
	return math.Round(a*1e6) / 1e6
}

// ElementSet returns the sorted union of elements across compositions.
func ElementSet(comps ...Composition) []string {
	seen := make(map[string]struct{})
	for _, c := range comps {
		for _, el := range c.order {
			seen[el] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for el := range seen {
		out = append(out, el)
	}
	sort.Strings(out)

	return out
}

// Chemsys renders a sorted element list as "Ba-O-Ti".
func Chemsys(elements []string) string {
	return strings.Join(elements, "-")
}
