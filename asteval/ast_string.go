package asteval

import "strings"

// JoinedStr implements an f-string literal (spec §4.4's `joinedstr`): a
// sequence of literal-text Constants interleaved with FormattedValue
// expressions, concatenated in order.
type JoinedStr struct {
	nodeBase
	Values []ASTNode
}

func (n *JoinedStr) Kind() NodeKind { return NodeJoinedStr }

func (n *JoinedStr) String() string {
	parts := make([]string, len(n.Values))
	for i, v := range n.Values {
		parts[i] = v.String()
	}
	return "f\"" + strings.Join(parts, "") + "\""
}

func (n *JoinedStr) eval(i *Interpreter) Value {
	var sb strings.Builder
	for _, part := range n.Values {
		sb.WriteString(Str(i.Eval1(part)))
	}
	return stringValue(sb.String())
}

// FormattedValue implements one `{expr!conv:spec}` field of an f-string
// (spec §4.4's `formattedvalue`; SPEC_FULL §E: !s/!r/!a implemented, the
// format-spec mini-language limited to pyFormatSpec's subset since
// format()/format_map() stay denylisted per §4.2). Conv is 0 when the field
// has no `!conv` suffix.
type FormattedValue struct {
	nodeBase
	Value ASTNode
	Conv  byte
	Spec  string
}

func (n *FormattedValue) Kind() NodeKind { return NodeFormattedValue }

func (n *FormattedValue) String() string {
	s := "{" + n.Value.String()
	if n.Conv != 0 {
		s += "!" + string(n.Conv)
	}
	if n.Spec != "" {
		s += ":" + n.Spec
	}
	return s + "}"
}

func (n *FormattedValue) eval(i *Interpreter) Value {
	v := i.Eval1(n.Value)
	if n.Conv != 0 {
		v = stringValue(pyFormatConversion(n.Conv, v))
	}
	return stringValue(pyFormatSpec(v, n.Spec))
}
