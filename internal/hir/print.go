package hir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"quill/internal/ast"
)

// ItemNamer returns the display name of a global item.
type ItemNamer func(ItemID) string

// Printer dumps HIR as Q#-like text. Types are omitted; the output is meant
// for tests and the --emit hir flag, not for re-parsing.
type Printer struct {
	w      io.Writer
	names  ItemNamer
	locals map[NodeID]string
	indent int
}

func NewPrinter(w io.Writer, names ItemNamer) *Printer {
	if names == nil {
		names = func(id ItemID) string { return id.String() }
	}
	return &Printer{w: w, names: names, locals: make(map[NodeID]string)}
}

// Dump writes every item of the package.
func Dump(w io.Writer, pkg *Package, names ItemNamer) {
	p := NewPrinter(w, names)
	for _, item := range pkg.SortedItems() {
		p.PrintItem(item)
	}
	for _, s := range pkg.Stmts {
		p.printStmt(s)
	}
}

// BlockString renders a block body (without braces) on one line per stmt.
func BlockString(b *Block, names ItemNamer) string {
	var sb strings.Builder
	p := NewPrinter(&sb, names)
	for _, s := range b.Stmts {
		p.printStmt(s)
	}
	return sb.String()
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) line(format string, args ...any) {
	p.printf("%s", strings.Repeat("    ", p.indent))
	p.printf(format, args...)
	p.printf("\n")
}

func (p *Printer) PrintItem(item *Item) {
	switch k := item.Kind.(type) {
	case *ItemCallable:
		p.printCallable(item, k.Decl)
	case *ItemTy:
		p.line("newtype %s = %s;", k.Name.Name, k.Def.Base)
	}
}

func (p *Printer) printCallable(item *Item, d *CallableDecl) {
	for _, a := range item.Attrs {
		p.line("@%s()", a)
	}
	var generics string
	if len(d.Generics) > 0 {
		generics = "<" + strings.Join(d.Generics, ", ") + ">"
	}
	var functors string
	if d.Functors != 0 {
		functors = " is " + d.Functors.String()
	}
	input := p.pat(d.Input)
	if _, ok := d.Input.Kind.(*PatTuple); !ok {
		input = "(" + input + ")"
	}
	p.line("%s %s%s%s : %s%s {", d.Kind, d.Name.Name, generics, input, d.Output, functors)
	p.indent++
	for _, s := range []ast.Spec{ast.SpecBody, ast.SpecAdj, ast.SpecCtl, ast.SpecCtlAdj} {
		spec := d.Spec(s)
		if spec == nil {
			continue
		}
		switch body := spec.Body.(type) {
		case *SpecGen:
			p.line("%s %s;", s, body.Gen)
		case *SpecImpl:
			input := "..."
			if body.Input != nil {
				input = "(" + p.pat(body.Input) + ", ...)"
			}
			p.line("%s %s {", s, input)
			p.indent++
			for _, st := range body.Block.Stmts {
				p.printStmt(st)
			}
			p.indent--
			p.line("}")
		}
	}
	p.indent--
	p.line("}")
}

func (p *Printer) printStmt(s *Stmt) {
	switch k := s.Kind.(type) {
	case *StmtExpr:
		p.line("%s", p.expr(k.Expr))
	case *StmtSemi:
		p.line("%s;", p.expr(k.Expr))
	case *StmtItem:
		p.line("item %d;", k.Item)
	case *StmtLocal:
		kw := "let"
		if k.Mutability == ast.Mutable {
			kw = "mutable"
		}
		p.line("%s %s = %s;", kw, p.pat(k.Pat), p.expr(k.Expr))
	case *StmtQubit:
		kw := "use"
		if k.Source == ast.QubitDirty {
			kw = "borrow"
		}
		if k.Block == nil {
			p.line("%s %s = %s;", kw, p.pat(k.Pat), p.qubitInit(k.Init))
			return
		}
		p.line("%s %s = %s %s", kw, p.pat(k.Pat), p.qubitInit(k.Init), p.block(k.Block))
	}
}

func (p *Printer) qubitInit(q *QubitInit) string {
	switch k := q.Kind.(type) {
	case *QubitSingle:
		return "Qubit()"
	case *QubitArray:
		return "Qubit[" + p.expr(k.Size) + "]"
	case *QubitTuple:
		parts := make([]string, len(k.Items))
		for i, item := range k.Items {
			parts[i] = p.qubitInit(item)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return "?"
}

func (p *Printer) pat(pt *Pat) string {
	switch k := pt.Kind.(type) {
	case *PatBind:
		p.locals[pt.ID] = k.Name.Name
		return k.Name.Name
	case *PatDiscard:
		return "_"
	case *PatTuple:
		parts := make([]string, len(k.Items))
		for i, item := range k.Items {
			parts[i] = p.pat(item)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return "?"
}

// block renders a block inline: `{ a; b; }`.
func (p *Printer) block(b *Block) string {
	if len(b.Stmts) == 0 {
		return "{}"
	}
	var sb strings.Builder
	inner := &Printer{w: &sb, names: p.names, locals: p.locals}
	sb.WriteString("{ ")
	for _, s := range b.Stmts {
		inner.printStmt(s)
	}
	out := strings.ReplaceAll(strings.TrimRight(sb.String(), "\n"), "\n", " ")
	return out + " }"
}

func (p *Printer) exprs(items []*Expr) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = p.expr(item)
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) expr(e *Expr) string {
	switch k := e.Kind.(type) {
	case *ExprArray:
		return "[" + p.exprs(k.Items) + "]"
	case *ExprArrayRepeat:
		return "[" + p.expr(k.Value) + ", size = " + p.expr(k.Size) + "]"
	case *ExprAssign:
		return "set " + p.expr(k.Lhs) + " = " + p.expr(k.Rhs)
	case *ExprAssignOp:
		return "set " + p.expr(k.Lhs) + " " + k.Op.String() + "= " + p.expr(k.Rhs)
	case *ExprAssignIndex:
		return "set " + p.expr(k.Array) + " w/= " + p.expr(k.Index) + " <- " + p.expr(k.Value)
	case *ExprBinOp:
		return p.expr(k.Lhs) + " " + k.Op.String() + " " + p.expr(k.Rhs)
	case *ExprBlock:
		return p.block(k.Block)
	case *ExprCall:
		return p.expr(k.Callee) + p.callArg(k.Arg)
	case *ExprConjugate:
		return "within " + p.block(k.Within) + " apply " + p.block(k.Apply)
	case *ExprFail:
		return "fail " + p.expr(k.Msg)
	case *ExprFor:
		return "for " + p.pat(k.Pat) + " in " + p.expr(k.Iterable) + " " + p.block(k.Body)
	case *ExprHole:
		return "_"
	case *ExprIf:
		s := "if " + p.expr(k.Cond) + " " + p.expr(k.Body)
		if k.Otherwise != nil {
			s += " else " + p.expr(k.Otherwise)
		}
		return s
	case *ExprIndex:
		return p.expr(k.Array) + "[" + p.expr(k.Index) + "]"
	case *ExprLit:
		return LitString(k.Lit)
	case *ExprRange:
		s := ""
		if k.Start != nil {
			s += p.expr(k.Start)
		}
		if k.Step != nil {
			s += ".." + p.expr(k.Step)
		}
		s += ".."
		if k.End != nil {
			s += p.expr(k.End)
		}
		return s
	case *ExprRepeat:
		s := "repeat " + p.block(k.Body) + " until " + p.expr(k.Until)
		if k.Fixup != nil {
			s += " fixup " + p.block(k.Fixup)
		}
		return s
	case *ExprReturn:
		return "return " + p.expr(k.Value)
	case *ExprTuple:
		if len(k.Items) == 1 {
			return "(" + p.expr(k.Items[0]) + ",)"
		}
		return "(" + p.exprs(k.Items) + ")"
	case *ExprUnOp:
		if k.Op == ast.OpUnwrap {
			return p.expr(k.Operand) + "!"
		}
		return k.Op.String() + p.expr(k.Operand)
	case *ExprUpdateIndex:
		return p.expr(k.Array) + " w/ " + p.expr(k.Index) + " <- " + p.expr(k.Value)
	case *ExprVar:
		return p.res(k.Res)
	case *ExprWhile:
		return "while " + p.expr(k.Cond) + " " + p.block(k.Body)
	case *ExprErr:
		return "<err>"
	}
	return "?"
}

func (p *Printer) callArg(arg *Expr) string {
	if tup, ok := arg.Kind.(*ExprTuple); ok {
		return "(" + p.exprs(tup.Items) + ")"
	}
	return "(" + p.expr(arg) + ")"
}

func (p *Printer) res(r Res) string {
	switch r := r.(type) {
	case ResLocal:
		if name, ok := p.locals[r.Node]; ok {
			return name
		}
		return "local" + strconv.FormatUint(uint64(r.Node), 10)
	case ResItem:
		return p.names(r.ID)
	}
	return "<err>"
}

// LitString renders a literal the way it would be written in source.
func LitString(l Lit) string {
	switch l := l.(type) {
	case *ast.LitBigInt:
		return l.Value.String() + "L"
	case *ast.LitBool:
		return strconv.FormatBool(l.Value)
	case *ast.LitDouble:
		s := strconv.FormatFloat(l.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case *ast.LitInt:
		return strconv.FormatInt(l.Value, 10)
	case *ast.LitPauli:
		return l.Value.String()
	case *ast.LitResult:
		if l.Value == ast.ResultOne {
			return "One"
		}
		return "Zero"
	case *ast.LitString:
		return strconv.Quote(l.Value)
	}
	return "?"
}
