package asteval

import (
	"math/big"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/pkg/errors"
)

// parser is a hand-written recursive-descent parser over the tokenizer's
// output, producing the ASTNode tree defined across ast*.go. Grounded on
// gql/lex.go's lexer-owns-the-token-stream style, but the grammar itself
// (and the descent structure) follows Python's own: a goyacc table (as
// gql/y.go generates) has no good way to express indentation-sensitive
// blocks, so this is written by hand instead of generated.
type parser struct {
	toks []token
	pos  int
}

// parseModule is the single entry point Interpreter.Parse calls. Lexer and
// parser errors are both raised as panics (an *EvalError, per errors.go's
// convention) and recovered here into the (nil, err) return.
func parseModule(filename, text string) (node ASTNode, errOut *EvalError) {
	errOut = Recover(func() {
		toks := tokenize(filename, text)
		p := &parser{toks: toks}
		node = p.parseFileInput()
	})
	if errOut != nil {
		return nil, errOut
	}
	return node, nil
}

// parseError raises SyntaxError at pos. The underlying cause is built with
// pkg/errors, same as gql/gql.go's parserState.Error wrapping the lexer
// position into the error text, so e.Cause carries a proper error value
// rather than a bare string.
func parseError(pos scanner.Position, format string, args ...interface{}) {
	e := newError(SyntaxError, nil, format, args...)
	e.Pos = pos
	e.Cause = errors.Errorf("%s: %s", pos, e.Message)
	panic(e)
}

// --- token stream helpers ---

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) peek(n int) token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) curKind() tokKind { return p.cur().kind }

func (p *parser) curIsOp(v string) bool {
	t := p.cur()
	return t.kind == tOP && t.val == v
}

func (p *parser) acceptOp(v string) bool {
	if p.curIsOp(v) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectOp(v string) {
	if !p.acceptOp(v) {
		parseError(p.cur().pos, "expected %q, got %q", v, p.cur().val)
	}
}

func (p *parser) atKeyword(w string) bool {
	t := p.cur()
	return t.kind == tNAME && t.val == w
}

func (p *parser) expectKeyword(w string) {
	if !p.atKeyword(w) {
		parseError(p.cur().pos, "expected keyword %q, got %q", w, p.cur().val)
	}
	p.advance()
}

func (p *parser) expectName() string {
	t := p.cur()
	if t.kind != tNAME {
		parseError(t.pos, "expected identifier, got %q", t.val)
	}
	p.advance()
	return t.val
}

func (p *parser) atStmtEnd() bool {
	k := p.curKind()
	return k == tNEWLINE || k == tEOF || p.curIsOp(";")
}

func (p *parser) expectIndent() {
	if p.curKind() != tINDENT {
		parseError(p.cur().pos, "expected an indented block")
	}
	p.advance()
}

func (p *parser) expectDedent() {
	if p.curKind() != tDEDENT {
		parseError(p.cur().pos, "expected a dedent")
	}
	p.advance()
}

func (p *parser) curAugOp() string {
	if p.cur().kind != tOP {
		return ""
	}
	switch p.cur().val {
	case "+=", "-=", "*=", "/=", "//=", "%=", "**=", "&=", "|=", "^=", "<<=", ">>=":
		return strings.TrimSuffix(p.cur().val, "=")
	}
	return ""
}

// --- top-level / blocks ---

func (p *parser) parseFileInput() ASTNode {
	var body []ASTNode
	for p.curKind() != tEOF {
		if p.curKind() == tNEWLINE {
			p.advance()
			continue
		}
		p.parseLogicalLine(&body)
	}
	return &Module{Body: body}
}

// parseLogicalLine parses one compound statement, or one semicolon-joined
// run of simple statements terminated by NEWLINE, appending to out.
func (p *parser) parseLogicalLine(out *[]ASTNode) {
	if p.cur().kind == tNAME {
		switch p.cur().val {
		case "if":
			*out = append(*out, p.parseIf())
			return
		case "while":
			*out = append(*out, p.parseWhile())
			return
		case "for":
			*out = append(*out, p.parseFor())
			return
		case "try":
			*out = append(*out, p.parseTry())
			return
		case "def":
			*out = append(*out, p.parseFunctionDef())
			return
		case "with":
			*out = append(*out, p.parseWith())
			return
		}
	}
	for {
		*out = append(*out, p.parseSimpleStmt())
		if p.acceptOp(";") {
			if p.curKind() == tNEWLINE || p.curKind() == tEOF || p.curKind() == tDEDENT {
				break
			}
			continue
		}
		break
	}
	if p.curKind() == tNEWLINE {
		p.advance()
	}
}

func (p *parser) parseBlock() []ASTNode {
	p.expectOp(":")
	if p.curKind() == tNEWLINE {
		p.advance()
		p.expectIndent()
		var body []ASTNode
		for p.curKind() != tDEDENT && p.curKind() != tEOF {
			p.parseLogicalLine(&body)
		}
		p.expectDedent()
		return body
	}
	var body []ASTNode
	p.parseLogicalLine(&body)
	return body
}

// --- compound statements ---

func (p *parser) parseIf() ASTNode {
	pos := p.cur().pos
	p.advance() // "if"
	test := p.parseTest()
	body := p.parseBlock()
	var orelse []ASTNode
	if p.atKeyword("elif") {
		orelse = []ASTNode{p.parseElifAsIf()}
	} else if p.atKeyword("else") {
		p.advance()
		orelse = p.parseBlock()
	}
	return &If{nodeBase: nodeBase{Pos: pos}, Test: test, Body: body, Orelse: orelse}
}

func (p *parser) parseElifAsIf() ASTNode {
	pos := p.cur().pos
	p.advance() // "elif"
	test := p.parseTest()
	body := p.parseBlock()
	var orelse []ASTNode
	if p.atKeyword("elif") {
		orelse = []ASTNode{p.parseElifAsIf()}
	} else if p.atKeyword("else") {
		p.advance()
		orelse = p.parseBlock()
	}
	return &If{nodeBase: nodeBase{Pos: pos}, Test: test, Body: body, Orelse: orelse}
}

func (p *parser) parseWhile() ASTNode {
	pos := p.cur().pos
	p.advance() // "while"
	test := p.parseTest()
	body := p.parseBlock()
	var orelse []ASTNode
	if p.atKeyword("else") {
		p.advance()
		orelse = p.parseBlock()
	}
	return &While{nodeBase: nodeBase{Pos: pos}, Test: test, Body: body, Orelse: orelse}
}

func (p *parser) parseFor() ASTNode {
	pos := p.cur().pos
	p.advance() // "for"
	target := p.parseForTarget()
	p.expectKeyword("in")
	iter := p.parseTestListStarExpr()
	body := p.parseBlock()
	var orelse []ASTNode
	if p.atKeyword("else") {
		p.advance()
		orelse = p.parseBlock()
	}
	return &For{nodeBase: nodeBase{Pos: pos}, Target: target, Iter: iter, Body: body, Orelse: orelse}
}

func (p *parser) parseTry() ASTNode {
	pos := p.cur().pos
	p.advance() // "try"
	body := p.parseBlock()
	var handlers []*ExceptHandler
	for p.atKeyword("except") {
		hpos := p.cur().pos
		p.advance()
		var kinds []ErrKind
		var name string
		if !p.curIsOp(":") {
			paren := p.acceptOp("(")
			kinds = append(kinds, ErrKind(p.expectName()))
			for p.acceptOp(",") {
				if paren && p.curIsOp(")") {
					break
				}
				kinds = append(kinds, ErrKind(p.expectName()))
			}
			if paren {
				p.expectOp(")")
			}
			if p.atKeyword("as") {
				p.advance()
				name = p.expectName()
			}
		}
		hbody := p.parseBlock()
		handlers = append(handlers, &ExceptHandler{nodeBase: nodeBase{Pos: hpos}, Kinds: kinds, Name: name, Body: hbody})
	}
	var orelse, finally []ASTNode
	if p.atKeyword("else") {
		p.advance()
		orelse = p.parseBlock()
	}
	if p.atKeyword("finally") {
		p.advance()
		finally = p.parseBlock()
	}
	return &Try{nodeBase: nodeBase{Pos: pos}, Body: body, Handlers: handlers, Orelse: orelse, Finally: finally}
}

func (p *parser) parseFunctionDef() ASTNode {
	pos := p.cur().pos
	p.advance() // "def"
	name := p.expectName()
	p.expectOp("(")
	params, vararg, varkw := p.parseParams()
	p.expectOp(")")
	if p.acceptOp("->") {
		p.parseTest() // return annotation, discarded
	}
	body := p.parseBlock()
	return &FunctionDef{
		nodeBase: nodeBase{Pos: pos},
		Name:     name,
		Doc:      extractDocstring(body),
		Params:   params,
		Vararg:   vararg,
		Varkw:    varkw,
		Body:     body,
	}
}

func extractDocstring(body []ASTNode) string {
	if len(body) == 0 {
		return ""
	}
	es, ok := body[0].(*ExprStmt)
	if !ok {
		return ""
	}
	c, ok := es.X.(*Constant)
	if !ok || c.Val.Kind() != StringKind {
		return ""
	}
	return c.Val.Str()
}

func (p *parser) parseParams() (params []*Arg, vararg, varkw string) {
	if p.curIsOp(")") {
		return
	}
	for {
		if p.curIsOp(")") {
			break
		}
		if p.acceptOp("**") {
			varkw = p.expectName()
		} else if p.acceptOp("*") {
			if p.cur().kind == tNAME {
				vararg = p.expectName()
			}
		} else {
			name := p.expectName()
			var def ASTNode
			if p.acceptOp("=") {
				def = p.parseTest()
			}
			params = append(params, &Arg{Name: name, Default: def})
		}
		if !p.acceptOp(",") {
			break
		}
	}
	return
}

func (p *parser) parseWith() ASTNode {
	pos := p.cur().pos
	p.advance() // "with"
	var items []WithItem
	for {
		ctx := p.parseTest()
		var target ASTNode
		if p.atKeyword("as") {
			p.advance()
			target = p.parseTargetItem()
		}
		items = append(items, WithItem{Context: ctx, Target: target})
		if !p.acceptOp(",") {
			break
		}
	}
	body := p.parseBlock()
	return &With{nodeBase: nodeBase{Pos: pos}, Items: items, Body: body}
}

func (p *parser) parseDottedName() string {
	name := p.expectName()
	for p.curIsOp(".") {
		p.advance()
		name += "." + p.expectName()
	}
	return name
}

func (p *parser) parseImportStmt() ASTNode {
	pos := p.cur().pos
	p.advance() // "import"
	module := p.parseDottedName()
	var asname string
	if p.atKeyword("as") {
		p.advance()
		asname = p.expectName()
	}
	return &Import{nodeBase: nodeBase{Pos: pos}, Module: module, Asname: asname}
}

func (p *parser) parseFromImportStmt() ASTNode {
	pos := p.cur().pos
	p.advance() // "from"
	module := p.parseDottedName()
	p.expectKeyword("import")
	var names, asnames []string
	paren := p.acceptOp("(")
	if p.acceptOp("*") {
		names = append(names, "*")
		asnames = append(asnames, "")
	} else {
		for {
			names = append(names, p.expectName())
			as := ""
			if p.atKeyword("as") {
				p.advance()
				as = p.expectName()
			}
			asnames = append(asnames, as)
			if !p.acceptOp(",") {
				break
			}
			if paren && p.curIsOp(")") {
				break
			}
		}
	}
	if paren {
		p.expectOp(")")
	}
	return &ImportFrom{nodeBase: nodeBase{Pos: pos}, Module: module, Names: names, Asnames: asnames}
}

// --- simple statements ---

func (p *parser) parseSimpleStmt() ASTNode {
	tok := p.cur()
	if tok.kind == tNAME {
		switch tok.val {
		case "pass":
			p.advance()
			return &Pass{nodeBase: nodeBase{Pos: tok.pos}}
		case "break":
			p.advance()
			return &Break{nodeBase: nodeBase{Pos: tok.pos}}
		case "continue":
			p.advance()
			return &Continue{nodeBase: nodeBase{Pos: tok.pos}}
		case "return":
			p.advance()
			if p.atStmtEnd() {
				return &Return{nodeBase: nodeBase{Pos: tok.pos}}
			}
			return &Return{nodeBase: nodeBase{Pos: tok.pos}, Value: p.parseTestListStarExpr()}
		case "raise":
			p.advance()
			if p.atStmtEnd() {
				return &Raise{nodeBase: nodeBase{Pos: tok.pos}}
			}
			exc := p.parseTest()
			var cause ASTNode
			if p.atKeyword("from") {
				p.advance()
				cause = p.parseTest()
			}
			return &Raise{nodeBase: nodeBase{Pos: tok.pos}, Exc: exc, Cause: cause}
		case "assert":
			p.advance()
			test := p.parseTest()
			var msg ASTNode
			if p.acceptOp(",") {
				msg = p.parseTest()
			}
			return &Assert{nodeBase: nodeBase{Pos: tok.pos}, Test: test, Msg: msg}
		case "del":
			p.advance()
			targets := []ASTNode{p.parsePostfix()}
			for p.acceptOp(",") {
				if p.atStmtEnd() {
					break
				}
				targets = append(targets, p.parsePostfix())
			}
			return &Delete{nodeBase: nodeBase{Pos: tok.pos}, Targets: targets}
		case "import":
			return p.parseImportStmt()
		case "from":
			return p.parseFromImportStmt()
		case "global", "nonlocal":
			// global/nonlocal declarations are syntactically accepted and
			// semantically inert: a procedure body can read outer names, but
			// an assignment inside it binds only in the call's scope and is
			// discarded on return, with or without the declaration.
			p.advance()
			p.expectName()
			for p.acceptOp(",") {
				p.expectName()
			}
			return &Pass{nodeBase: nodeBase{Pos: tok.pos}}
		}
	}
	return p.parseExprOrAssignStmt()
}

func (p *parser) parseExprOrAssignStmt() ASTNode {
	pos := p.cur().pos
	first := p.parseTestListStarExpr()
	if op := p.curAugOp(); op != "" {
		p.advance()
		value := p.parseTestListStarExpr()
		return &AugAssign{nodeBase: nodeBase{Pos: pos}, Target: first, Op: op, Value: value}
	}
	if p.curIsOp("=") {
		exprs := []ASTNode{first}
		for p.acceptOp("=") {
			exprs = append(exprs, p.parseTestListStarExpr())
		}
		value := exprs[len(exprs)-1]
		targets := exprs[:len(exprs)-1]
		return &Assign{nodeBase: nodeBase{Pos: pos}, Targets: targets, Value: value}
	}
	return &ExprStmt{nodeBase: nodeBase{Pos: pos}, X: first}
}

// parseTestListStarExpr parses a comma-separated list of (possibly starred)
// tests, collapsing to a bare node when there is exactly one and no trailing
// comma, else a TupleLit (spec §4.5's tuple-without-parens literal).
func (p *parser) parseTestListStarExpr() ASTNode {
	first := p.parseStarOrTest()
	if !p.curIsOp(",") {
		return first
	}
	elts := []ASTNode{first}
	for p.acceptOp(",") {
		if p.atStmtEnd() || p.curIsOp("=") || p.curAugOp() != "" {
			break
		}
		elts = append(elts, p.parseStarOrTest())
	}
	return &TupleLit{Elts: elts}
}

func (p *parser) parseStarOrTest() ASTNode {
	if p.acceptOp("*") {
		return &Starred{X: p.parseTest()}
	}
	return p.parseTest()
}

// --- targets (for/comprehension/with bindings) ---

func (p *parser) parseForTarget() ASTNode {
	first := p.parseTargetItem()
	if !p.curIsOp(",") {
		return first
	}
	elts := []ASTNode{first}
	for p.acceptOp(",") {
		if p.atKeyword("in") {
			break
		}
		elts = append(elts, p.parseTargetItem())
	}
	return &TupleLit{Elts: elts}
}

func (p *parser) parseTargetItem() ASTNode {
	if p.acceptOp("*") {
		return &Starred{X: p.parsePostfix()}
	}
	if p.curIsOp("(") || p.curIsOp("[") {
		closing := ")"
		if p.cur().val == "[" {
			closing = "]"
		}
		p.advance()
		t := p.parseForTarget()
		p.expectOp(closing)
		return t
	}
	return p.parsePostfix()
}

// --- expressions, precedence-climbing ---

func (p *parser) parseTest() ASTNode {
	body := p.parseOrTest()
	if p.atKeyword("if") {
		pos := p.cur().pos
		p.advance()
		test := p.parseOrTest()
		p.expectKeyword("else")
		orelse := p.parseTest()
		return &IfExp{nodeBase: nodeBase{Pos: pos}, Test: test, Body: body, Orelse: orelse}
	}
	return body
}

func (p *parser) parseOrTest() ASTNode {
	left := p.parseAndTest()
	if !p.atKeyword("or") {
		return left
	}
	pos := p.cur().pos
	vals := []ASTNode{left}
	for p.atKeyword("or") {
		p.advance()
		vals = append(vals, p.parseAndTest())
	}
	return &BoolOp{nodeBase: nodeBase{Pos: pos}, Op: "or", Values: vals}
}

func (p *parser) parseAndTest() ASTNode {
	left := p.parseNotTest()
	if !p.atKeyword("and") {
		return left
	}
	pos := p.cur().pos
	vals := []ASTNode{left}
	for p.atKeyword("and") {
		p.advance()
		vals = append(vals, p.parseNotTest())
	}
	return &BoolOp{nodeBase: nodeBase{Pos: pos}, Op: "and", Values: vals}
}

func (p *parser) parseNotTest() ASTNode {
	if p.atKeyword("not") {
		pos := p.cur().pos
		p.advance()
		return &UnaryOp{nodeBase: nodeBase{Pos: pos}, Op: "not", X: p.parseNotTest()}
	}
	return p.parseComparison()
}

func (p *parser) peekCompareOp() string {
	switch {
	case p.curIsOp("<"):
		return "<"
	case p.curIsOp(">"):
		return ">"
	case p.curIsOp("<="):
		return "<="
	case p.curIsOp(">="):
		return ">="
	case p.curIsOp("=="):
		return "=="
	case p.curIsOp("!="):
		return "!="
	case p.atKeyword("in"):
		return "in"
	case p.atKeyword("not") && p.peek(1).kind == tNAME && p.peek(1).val == "in":
		return "not in"
	case p.atKeyword("is") && p.peek(1).kind == tNAME && p.peek(1).val == "not":
		return "is not"
	case p.atKeyword("is"):
		return "is"
	}
	return ""
}

func (p *parser) consumeCompareOp(op string) {
	p.advance()
	if op == "not in" || op == "is not" {
		p.advance()
	}
}

func (p *parser) parseComparison() ASTNode {
	left := p.parseBitOr()
	var ops []string
	var comps []ASTNode
	for {
		op := p.peekCompareOp()
		if op == "" {
			break
		}
		p.consumeCompareOp(op)
		comps = append(comps, p.parseBitOr())
		ops = append(ops, op)
	}
	if len(ops) == 0 {
		return left
	}
	return &Compare{Left: left, Ops: ops, Comparators: comps}
}

func (p *parser) parseBitOr() ASTNode {
	left := p.parseBitXor()
	for p.curIsOp("|") {
		pos := p.cur().pos
		p.advance()
		left = &BinOp{nodeBase: nodeBase{Pos: pos}, Op: "|", Left: left, Right: p.parseBitXor()}
	}
	return left
}

func (p *parser) parseBitXor() ASTNode {
	left := p.parseBitAnd()
	for p.curIsOp("^") {
		pos := p.cur().pos
		p.advance()
		left = &BinOp{nodeBase: nodeBase{Pos: pos}, Op: "^", Left: left, Right: p.parseBitAnd()}
	}
	return left
}

func (p *parser) parseBitAnd() ASTNode {
	left := p.parseShift()
	for p.curIsOp("&") {
		pos := p.cur().pos
		p.advance()
		left = &BinOp{nodeBase: nodeBase{Pos: pos}, Op: "&", Left: left, Right: p.parseShift()}
	}
	return left
}

func (p *parser) parseShift() ASTNode {
	left := p.parseArith()
	for p.curIsOp("<<") || p.curIsOp(">>") {
		op := p.cur().val
		pos := p.cur().pos
		p.advance()
		left = &BinOp{nodeBase: nodeBase{Pos: pos}, Op: op, Left: left, Right: p.parseArith()}
	}
	return left
}

func (p *parser) parseArith() ASTNode {
	left := p.parseTerm()
	for p.curIsOp("+") || p.curIsOp("-") {
		op := p.cur().val
		pos := p.cur().pos
		p.advance()
		left = &BinOp{nodeBase: nodeBase{Pos: pos}, Op: op, Left: left, Right: p.parseTerm()}
	}
	return left
}

func (p *parser) parseTerm() ASTNode {
	left := p.parseFactor()
	for p.curIsOp("*") || p.curIsOp("/") || p.curIsOp("//") || p.curIsOp("%") || p.curIsOp("@") {
		op := p.cur().val
		pos := p.cur().pos
		p.advance()
		left = &BinOp{nodeBase: nodeBase{Pos: pos}, Op: op, Left: left, Right: p.parseFactor()}
	}
	return left
}

func (p *parser) parseFactor() ASTNode {
	if p.curIsOp("-") || p.curIsOp("+") || p.curIsOp("~") {
		op := p.cur().val
		pos := p.cur().pos
		p.advance()
		return &UnaryOp{nodeBase: nodeBase{Pos: pos}, Op: op, X: p.parseFactor()}
	}
	return p.parsePower()
}

func (p *parser) parsePower() ASTNode {
	base := p.parsePostfix()
	if p.acceptOp("**") {
		return &BinOp{Op: "**", Left: base, Right: p.parseFactor()}
	}
	return base
}

func (p *parser) parsePostfix() ASTNode {
	x := p.parseAtom()
	for {
		switch {
		case p.curIsOp("."):
			p.advance()
			name := p.expectName()
			x = &Attribute{Value: x, Attr: name}
		case p.curIsOp("("):
			p.advance()
			args, kwargs := p.parseCallArgs()
			p.expectOp(")")
			x = &Call{Func: x, Args: args, Keywords: kwargs}
		case p.curIsOp("["):
			p.advance()
			sl := p.parseSubscript()
			p.expectOp("]")
			x = &Subscript{Value: x, Slice: sl}
		default:
			return x
		}
	}
}

func (p *parser) parseCallArgs() ([]ASTNode, []Keyword) {
	var args []ASTNode
	var kwargs []Keyword
	if p.curIsOp(")") {
		return args, kwargs
	}
	for {
		if p.curIsOp(")") {
			break
		}
		switch {
		case p.acceptOp("**"):
			kwargs = append(kwargs, Keyword{Name: "", Value: p.parseTest()})
		case p.curIsOp("*"):
			p.advance()
			args = append(args, &Starred{X: p.parseTest()})
		case p.cur().kind == tNAME && p.peek(1).kind == tOP && p.peek(1).val == "=":
			name := p.cur().val
			p.advance()
			p.advance()
			kwargs = append(kwargs, Keyword{Name: name, Value: p.parseTest()})
		default:
			args = append(args, p.parseTest())
		}
		if !p.acceptOp(",") {
			break
		}
	}
	return args, kwargs
}

func (p *parser) parseSubscript() ASTNode {
	first := p.parseSubscriptItem()
	if !p.curIsOp(",") {
		return first
	}
	items := []ASTNode{first}
	for p.acceptOp(",") {
		if p.curIsOp("]") {
			break
		}
		items = append(items, p.parseSubscriptItem())
	}
	return &ExtSlice{Dims: items}
}

func (p *parser) parseSubscriptItem() ASTNode {
	var lower, upper, step ASTNode
	hasColon := false
	if !p.curIsOp(":") && !p.curIsOp("]") && !p.curIsOp(",") {
		lower = p.parseTest()
	}
	if p.acceptOp(":") {
		hasColon = true
		if !p.curIsOp(":") && !p.curIsOp("]") && !p.curIsOp(",") {
			upper = p.parseTest()
		}
		if p.acceptOp(":") {
			if !p.curIsOp("]") && !p.curIsOp(",") {
				step = p.parseTest()
			}
		}
	}
	if !hasColon {
		return &Index{Value: lower}
	}
	return &SliceExpr{Lower: lower, Upper: upper, Step: step}
}

// --- atoms, container literals, comprehensions ---

func (p *parser) parseAtom() ASTNode {
	tok := p.cur()
	switch {
	case tok.kind == tNUMBER:
		p.advance()
		return newConstant(tok.pos, parseNumberLiteral(tok.val))
	case tok.kind == tSTRING:
		return p.parseStringAtom()
	case tok.kind == tNAME:
		switch tok.val {
		case "None":
			p.advance()
			return newConstant(tok.pos, None)
		case "True":
			p.advance()
			return newConstant(tok.pos, boolValue(true))
		case "False":
			p.advance()
			return newConstant(tok.pos, boolValue(false))
		case "lambda":
			parseError(tok.pos, "lambda expressions are not supported")
		}
		p.advance()
		return &Name{nodeBase: nodeBase{Pos: tok.pos}, Id: tok.val}
	case tok.kind == tOP && tok.val == "...":
		p.advance()
		return newConstant(tok.pos, Ellipsis)
	case tok.kind == tOP && tok.val == "(":
		return p.parseParenForm()
	case tok.kind == tOP && tok.val == "[":
		return p.parseListForm()
	case tok.kind == tOP && tok.val == "{":
		return p.parseDictOrSetForm()
	}
	parseError(tok.pos, "unexpected token %q", tok.val)
	return nil
}

func (p *parser) parseParenForm() ASTNode {
	pos := p.cur().pos
	p.advance() // "("
	if p.curIsOp(")") {
		p.advance()
		return &TupleLit{nodeBase: nodeBase{Pos: pos}}
	}
	first := p.parseStarOrTest()
	if p.atKeyword("for") {
		gens := p.parseCompFor()
		p.expectOp(")")
		// No separate lazy-generator node kind (§1 non-goal: no distinct
		// generator-iterator type); a genexp is evaluated eagerly, same as
		// a list comprehension.
		return &ListComp{nodeBase: nodeBase{Pos: pos}, Elt: first, Generators: gens}
	}
	if p.curIsOp(",") {
		elts := []ASTNode{first}
		for p.acceptOp(",") {
			if p.curIsOp(")") {
				break
			}
			elts = append(elts, p.parseStarOrTest())
		}
		p.expectOp(")")
		return &TupleLit{nodeBase: nodeBase{Pos: pos}, Elts: elts}
	}
	p.expectOp(")")
	return first
}

func (p *parser) parseListForm() ASTNode {
	pos := p.cur().pos
	p.advance() // "["
	if p.curIsOp("]") {
		p.advance()
		return &ListLit{nodeBase: nodeBase{Pos: pos}}
	}
	first := p.parseStarOrTest()
	if p.atKeyword("for") {
		gens := p.parseCompFor()
		p.expectOp("]")
		return &ListComp{nodeBase: nodeBase{Pos: pos}, Elt: first, Generators: gens}
	}
	elts := []ASTNode{first}
	for p.acceptOp(",") {
		if p.curIsOp("]") {
			break
		}
		elts = append(elts, p.parseStarOrTest())
	}
	p.expectOp("]")
	return &ListLit{nodeBase: nodeBase{Pos: pos}, Elts: elts}
}

func (p *parser) parseDictOrSetForm() ASTNode {
	pos := p.cur().pos
	p.advance() // "{"
	if p.curIsOp("}") {
		p.advance()
		return &DictLit{nodeBase: nodeBase{Pos: pos}}
	}
	if p.acceptOp("**") {
		val := p.parseOrTest()
		keys := []ASTNode{nil}
		values := []ASTNode{val}
		for p.acceptOp(",") {
			if p.curIsOp("}") {
				break
			}
			if p.acceptOp("**") {
				keys = append(keys, nil)
				values = append(values, p.parseOrTest())
				continue
			}
			k := p.parseTest()
			p.expectOp(":")
			v := p.parseTest()
			keys = append(keys, k)
			values = append(values, v)
		}
		p.expectOp("}")
		return &DictLit{nodeBase: nodeBase{Pos: pos}, Keys: keys, Values: values}
	}
	first := p.parseTest()
	if p.acceptOp(":") {
		val := p.parseTest()
		if p.atKeyword("for") {
			gens := p.parseCompFor()
			p.expectOp("}")
			return &DictComp{nodeBase: nodeBase{Pos: pos}, Key: first, Value: val, Generators: gens}
		}
		keys := []ASTNode{first}
		values := []ASTNode{val}
		for p.acceptOp(",") {
			if p.curIsOp("}") {
				break
			}
			if p.acceptOp("**") {
				keys = append(keys, nil)
				values = append(values, p.parseOrTest())
				continue
			}
			k := p.parseTest()
			p.expectOp(":")
			v := p.parseTest()
			keys = append(keys, k)
			values = append(values, v)
		}
		p.expectOp("}")
		return &DictLit{nodeBase: nodeBase{Pos: pos}, Keys: keys, Values: values}
	}
	if p.atKeyword("for") {
		gens := p.parseCompFor()
		p.expectOp("}")
		return &SetComp{nodeBase: nodeBase{Pos: pos}, Elt: first, Generators: gens}
	}
	elts := []ASTNode{first}
	for p.acceptOp(",") {
		if p.curIsOp("}") {
			break
		}
		elts = append(elts, p.parseTest())
	}
	p.expectOp("}")
	return &SetLit{nodeBase: nodeBase{Pos: pos}, Elts: elts}
}

func (p *parser) parseCompFor() []Comprehension {
	var gens []Comprehension
	for p.atKeyword("for") {
		p.advance()
		target := p.parseForTarget()
		p.expectKeyword("in")
		iter := p.parseOrTest()
		var ifs []ASTNode
		for p.atKeyword("if") {
			p.advance()
			ifs = append(ifs, p.parseOrTest())
		}
		gens = append(gens, Comprehension{Target: target, Iter: iter, Ifs: ifs})
	}
	return gens
}

// --- string/number literal decoding ---

func (p *parser) parseStringAtom() ASTNode {
	tok := p.cur()
	pos := tok.pos
	if strings.Contains(tok.prefix, "f") {
		p.advance()
		return parseFStringLiteral(pos, tok.val)
	}
	isBytes := strings.Contains(tok.prefix, "b")
	var sb strings.Builder
	sb.WriteString(tok.val)
	p.advance()
	for p.cur().kind == tSTRING && !strings.Contains(p.cur().prefix, "f") && strings.Contains(p.cur().prefix, "b") == isBytes {
		sb.WriteString(p.cur().val)
		p.advance()
	}
	if isBytes {
		return newConstant(pos, bytesValue([]byte(sb.String())))
	}
	return newConstant(pos, stringValue(sb.String()))
}

func parseNumberLiteral(s string) Value {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		bi, _ := new(big.Int).SetString(s[2:], 16)
		return intValueBig(bi)
	case strings.HasPrefix(lower, "0o"):
		bi, _ := new(big.Int).SetString(s[2:], 8)
		return intValueBig(bi)
	case strings.HasPrefix(lower, "0b"):
		bi, _ := new(big.Int).SetString(s[2:], 2)
		return intValueBig(bi)
	}
	if strings.ContainsAny(s, ".eE") {
		f, _ := strconv.ParseFloat(s, 64)
		return floatValue(f)
	}
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		bi = big.NewInt(0)
	}
	return intValueBig(bi)
}

// parseFStringLiteral splits an f-string body into literal-text and
// FormattedValue pieces (spec §4.4's `joinedstr`/`formattedvalue`), using a
// brace-depth scan rather than a grammar production since the field
// expression is itself arbitrary Python and easiest handled by recursing
// into a fresh tokenizer/parser over just that substring.
func parseFStringLiteral(pos scanner.Position, text string) ASTNode {
	var values []ASTNode
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			values = append(values, newConstant(pos, stringValue(lit.String())))
			lit.Reset()
		}
	}
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '{':
			j := findMatchingBrace(text, i)
			inner := text[i+1 : j]
			flush()
			exprText, conv, spec := splitFStringField(inner)
			values = append(values, &FormattedValue{nodeBase: nodeBase{Pos: pos}, Value: parseSubExpr(exprText), Conv: conv, Spec: spec})
			if j < len(text) {
				i = j + 1
			} else {
				i = j
			}
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return &JoinedStr{nodeBase: nodeBase{Pos: pos}, Values: values}
}

func findMatchingBrace(text string, start int) int {
	depth := 1
	j := start + 1
	for j < len(text) {
		switch text[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
		j++
	}
	return len(text)
}

// splitFStringField separates one `{expr[!conv][:spec]}` field's inner text
// into its expression, optional conversion letter, and optional format spec,
// tracking bracket depth so a nested `{width}` inside the spec (or a `:`
// inside a subscript) doesn't get mistaken for the field's own separators.
func splitFStringField(inner string) (exprText string, conv byte, spec string) {
	depth := 0
	specIdx := -1
	for idx := 0; idx < len(inner); idx++ {
		switch inner[idx] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth == 0 {
				specIdx = idx
			}
		}
		if specIdx >= 0 {
			break
		}
	}
	exprPart := inner
	if specIdx >= 0 {
		exprPart = inner[:specIdx]
		spec = inner[specIdx+1:]
	}
	exprPart = strings.TrimRight(exprPart, " ")
	if len(exprPart) >= 2 && exprPart[len(exprPart)-2] == '!' {
		c := exprPart[len(exprPart)-1]
		if c == 's' || c == 'r' || c == 'a' {
			conv = c
			exprPart = exprPart[:len(exprPart)-2]
		}
	}
	return strings.TrimSpace(exprPart), conv, spec
}

func parseSubExpr(s string) ASTNode {
	toks := tokenize("<fstring>", s)
	p := &parser{toks: toks}
	return p.parseTestListStarExpr()
}
