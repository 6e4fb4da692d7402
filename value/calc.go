package value

// Calculation is unsimplified CSS math function: calc(), min(), max() or
// clamp(). Arguments are Number, String (raw text such as var(--x)),
// *Calculation or *CalcOp.
type Calculation struct {
	Name string
	Args []any
}

// CalcOp is binary operation inside calculation.
type CalcOp struct {
	Op          byte // one of + - * /
	Left, Right any
}

func (*Calculation) isValue()         {}
func (*Calculation) TypeName() string { return "calculation" }

func (c *Calculation) equal(o *Calculation) bool {
	if c.Name != o.Name || len(c.Args) != len(o.Args) {
		return false
	}
	for i := range c.Args {
		if !calcArgEqual(c.Args[i], o.Args[i]) {
			return false
		}
	}
	return true
}

func calcArgEqual(a, b any) bool {
	switch x := a.(type) {
	case *CalcOp:
		y, ok := b.(*CalcOp)
		return ok && x.Op == y.Op && calcArgEqual(x.Left, y.Left) && calcArgEqual(x.Right, y.Right)
	case Value:
		y, ok := b.(Value)
		return ok && Equal(x, y)
	}
	return false
}

// CalcOperate simplifies binary operation when both sides are numbers that
// can be combined.
func CalcOperate(op byte, left, right any) (any, error) {
	l, ok1 := left.(Number)
	r, ok2 := right.(Number)
	if ok1 && ok2 {
		switch op {
		case '+', '-':
			if l.Units.IsNone() == r.Units.IsNone() && l.Units.Compatible(r.Units) {
				if op == '+' {
					return Add(l, r)
				}
				return Sub(l, r)
			}
		case '*':
			return Mul(l, r)
		case '/':
			return Div(l, r)
		}
	}
	return &CalcOp{Op: op, Left: left, Right: right}, nil
}

// NewCalculation builds calculation and simplifies it to a number where the
// arguments allow it.
func NewCalculation(name string, args []any) (Value, error) {
	for i, a := range args {
		if c, ok := a.(*Calculation); ok && c.Name == "calc" && len(c.Args) == 1 {
			// nested calc() can be unwrapped if it contains a single operation
			if _, isOp := c.Args[0].(*CalcOp); !isOp {
				args[i] = c.Args[0]
			}
		}
	}
	switch name {
	case "calc":
		if len(args) == 1 {
			switch t := args[0].(type) {
			case Number:
				return t, nil
			case *Calculation:
				return t, nil
			}
		}
	case "min", "max":
		if n, ok := pickNumber(name, args); ok {
			return n, nil
		}
	case "clamp":
		if len(args) == 3 {
			lo, ok1 := args[0].(Number)
			v, ok2 := args[1].(Number)
			hi, ok3 := args[2].(Number)
			if ok1 && ok2 && ok3 && compatibleAll(lo, v, hi) {
				if c, _ := compare(v, lo, "<"); c < 0 {
					return lo, nil
				}
				if c, _ := compare(v, hi, ">"); c > 0 {
					return hi, nil
				}
				return v, nil
			}
		}
	}
	return &Calculation{Name: name, Args: args}, nil
}

func compatibleAll(ns ...Number) bool {
	for i := 1; i < len(ns); i++ {
		if ns[0].Units.IsNone() != ns[i].Units.IsNone() || !ns[0].Units.Compatible(ns[i].Units) {
			return false
		}
	}
	return true
}

func pickNumber(name string, args []any) (Number, bool) {
	nums := make([]Number, 0, len(args))
	for _, a := range args {
		n, ok := a.(Number)
		if !ok {
			return Number{}, false
		}
		nums = append(nums, n)
	}
	if len(nums) == 0 || !compatibleAll(nums...) {
		return Number{}, false
	}
	best := nums[0]
	for _, n := range nums[1:] {
		c, err := compare(n, best, name)
		if err != nil {
			return Number{}, false
		}
		if name == "min" && c < 0 || name == "max" && c > 0 {
			best = n
		}
	}
	return best, true
}

func (w *writer) calculation(c *Calculation) error {
	w.b.WriteString(c.Name)
	w.b.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			if w.compressed {
				w.b.WriteByte(',')
			} else {
				w.b.WriteString(", ")
			}
		}
		if err := w.calcArg(a); err != nil {
			return err
		}
	}
	w.b.WriteByte(')')
	return nil
}

func precedence(op byte) int {
	if op == '+' || op == '-' {
		return 1
	}
	return 2
}

func (w *writer) calcArg(a any) error {
	switch t := a.(type) {
	case *CalcOp:
		if err := w.calcOperand(t.Left, t.Op, false); err != nil {
			return err
		}
		ws := !w.compressed || precedence(t.Op) == 1
		if ws {
			w.b.WriteByte(' ')
		}
		w.b.WriteByte(t.Op)
		if ws {
			w.b.WriteByte(' ')
		}
		return w.calcOperand(t.Right, t.Op, true)
	case Number:
		if !w.inspect && (len(t.Units.Num) > 1 || len(t.Units.Den) > 0) {
			return typeErr("Number %s isn't compatible with CSS calculations.", Inspect(t))
		}
		return w.number(t.WithoutSlash())
	case Value:
		// interpolated text is written as is
		if s, ok := t.(String); ok {
			w.b.WriteString(s.Text)
			return nil
		}
		return w.value(t)
	}
	return nil
}

func (w *writer) calcOperand(a any, parent byte, right bool) error {
	op, ok := a.(*CalcOp)
	parens := false
	if ok {
		p, c := precedence(parent), precedence(op.Op)
		parens = c < p || right && c == p && (parent == '-' || parent == '/')
	}
	if parens {
		w.b.WriteByte('(')
	}
	if err := w.calcArg(a); err != nil {
		return err
	}
	if parens {
		w.b.WriteByte(')')
	}
	return nil
}
