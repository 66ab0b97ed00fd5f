package asteval

// Kind tags the variant held by a Value.
type Kind byte

const (
	InvalidKind Kind = iota
	// EmptyKind marks the absence of a symbol. Distinct from NoneKind.
	EmptyKind
	// ReturnedNoneKind marks a `return` (or `return None`) that explicitly
	// produced no value, as opposed to a body that fell off its end.
	ReturnedNoneKind
	NoneKind
	EllipsisKind
	BoolKind
	IntKind
	FloatKind
	StringKind
	BytesKind
	ListKind
	TupleKind
	DictKind
	SetKind
	ProcKind
	HostKind
)

func (k Kind) String() string {
	switch k {
	case InvalidKind:
		return "invalid"
	case EmptyKind:
		return "empty"
	case ReturnedNoneKind:
		return "returned-none"
	case NoneKind:
		return "NoneType"
	case EllipsisKind:
		return "ellipsis"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case StringKind:
		return "str"
	case BytesKind:
		return "bytes"
	case ListKind:
		return "list"
	case TupleKind:
		return "tuple"
	case DictKind:
		return "dict"
	case SetKind:
		return "set"
	case ProcKind:
		return "function"
	case HostKind:
		return "host-object"
	default:
		return "unknown"
	}
}
