package asteval

import (
	"math/big"
	"reflect"
	"regexp"
	"strings"

	"github.com/grailbio/asteval/symbol"
)

// Bounds enforced by the safe_* arithmetic primitives (spec §4.2).
const (
	MaxExponent = 10000
	MaxStrLen   = 256 * 1024
	MaxShift    = 1000
	MaxOpenBuf  = 256 * 1024
)

// unsafeAttr is the UNSAFE_ATTR denylist, carried bit-for-bit from the
// original Python source's astutils.py (see SPEC_FULL §D.2) rather than
// re-derived, since safe_getattr's conformance depends on exact membership.
var unsafeAttr = map[string]bool{
	"__subclasses__": true, "__bases__": true, "__globals__": true,
	"__code__": true, "__closure__": true, "__func__": true,
	"__self__": true, "__module__": true, "__dict__": true,
	"__class__": true, "__call__": true, "__get__": true,
	"__getattribute__": true, "__subclasshook__": true, "__new__": true,
	"__init__": true, "__reduce__": true, "__reduce_ex__": true,
	"__mro__": true, "mro": true, "f_locals": true, "__asteval__": true,
}

// unsafeAttrPrefix covers the legacy Python 2 func_*/im_*/gi_* attribute
// families, which are prefixes rather than exact names.
var unsafeAttrPrefix = []string{"func_", "im_", "gi_"}

// perTypeDenylist blocks additional attributes on specific Value kinds; the
// original denylists str.format/str.format_map since both can be abused to
// reach unsafe attributes through format-spec mini-language tricks.
var perTypeDenylist = map[Kind]map[string]bool{
	StringKind: {"format": true, "format_map": true},
}

// unsafeHostTypes names Go types that stand in for Python's io/os/sys/ctypes
// modules: process- and filesystem-control surfaces a sandboxed script
// should not reach without allow_unsafe_modules.
var unsafeHostTypes = map[string]bool{
	"*os.File": true, "*os.Process": true, "os.FileInfo": true,
	"*exec.Cmd": true, "reflect.Value": true,
}

// attrResolver lets a host object (e.g. an imported module) supply its own
// attribute lookup instead of reflection over exported struct fields.
type attrResolver interface {
	ResolveAttr(name string) (Value, bool)
}

func isDunder(name string) bool {
	return len(name) >= 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// safeGetattr implements spec §4.2's safe_getattr: reject UNSAFE_ATTR, any
// dunder name, per-type denylisted names, and attributes whose resolved
// value is an unsafe host type, unless allowUnsafeModules.
func safeGetattr(n ASTNode, recv Value, name string, allowUnsafeModules bool) Value {
	if unsafeAttr[name] || isDunder(name) {
		raise(AttributeError, n, "no safe attribute '%s' for %s", name, Repr(recv))
	}
	for _, p := range unsafeAttrPrefix {
		if strings.HasPrefix(name, p) {
			raise(AttributeError, n, "no safe attribute '%s' for %s", name, Repr(recv))
		}
	}
	if deny, ok := perTypeDenylist[recv.Kind()]; ok && deny[name] {
		raise(AttributeError, n, "no safe attribute '%s' for %s", name, Repr(recv))
	}
	v, err := resolveAttr(recv, name)
	if err != nil {
		raise(AttributeError, n, "no safe attribute '%s' for %s", name, Repr(recv))
	}
	if v.Kind() == HostKind && !allowUnsafeModules {
		t := reflect.TypeOf(v.Host())
		if t != nil && unsafeHostTypes[t.String()] {
			raise(AttributeError, n, "no safe attribute '%s' for %s: unsafe host module", name, Repr(recv))
		}
	}
	return v
}

// resolveAttr performs the underlying (unfiltered) attribute lookup. Host
// objects are walked via reflection (exported fields, then exported methods
// of any arity, bound to the receiver and returned as host values); every
// other kind has no attributes of its own.
func resolveAttr(recv Value, name string) (Value, error) {
	if recv.Kind() != HostKind {
		return Value{}, newError(AttributeError, nil, "'%s' object has no attribute '%s'", recv.Kind(), name)
	}
	if m, ok := recv.Host().(attrResolver); ok {
		if v, ok := m.ResolveAttr(name); ok {
			return v, nil
		}
		return Value{}, newError(AttributeError, nil, "no attribute '%s'", name)
	}
	rv := reflect.ValueOf(recv.Host())
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return Value{}, newError(AttributeError, nil, "nil pointer")
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName(name); f.IsValid() {
			return GoToValue(f.Interface()), nil
		}
	}
	orig := reflect.ValueOf(recv.Host())
	if m := orig.MethodByName(name); m.IsValid() {
		return HostValue(m.Interface()), nil
	}
	return Value{}, newError(AttributeError, nil, "no attribute '%s'", name)
}

// GoToValue boxes a native Go value as a Value, converting the common
// scalar/slice/map shapes into first-class asteval Values and falling back
// to an opaque host object for everything else.
func GoToValue(x interface{}) Value {
	switch v := x.(type) {
	case Value:
		return v
	case nil:
		return None
	case bool:
		return boolValue(v)
	case int:
		return intValue(int64(v))
	case int64:
		return intValue(v)
	case float64:
		return floatValue(v)
	case string:
		return stringValue(v)
	case []byte:
		return bytesValue(v)
	}
	return HostValue(x)
}

var bigMaxExponent = big.NewInt(MaxExponent)

// safePow implements safe_pow: reject an exponent exceeding MaxExponent.
func safePow(n ASTNode, exp Value) {
	if exp.Kind() == IntKind && exp.Int().Cmp(bigMaxExponent) > 0 {
		raise(RuntimeError, n, "exponent %s exceeds MAX_EXPONENT (%d)", exp.Int().String(), MaxExponent)
	}
	if exp.Kind() == FloatKind && exp.Float() > MaxExponent {
		raise(RuntimeError, n, "exponent exceeds MAX_EXPONENT (%d)", MaxExponent)
	}
}

// safeMul implements safe_mul: reject a string repeat/concat whose
// projected length exceeds MaxStrLen.
func safeMul(n ASTNode, projectedLen int) {
	if projectedLen > MaxStrLen {
		raise(RuntimeError, n, "string length %d exceeds MAX_STR_LEN (%d)", projectedLen, MaxStrLen)
	}
}

// safeAdd implements safe_add: same length rule as safeMul, for `+`.
func safeAdd(n ASTNode, projectedLen int) { safeMul(n, projectedLen) }

// safeLshift implements safe_lshift: reject a shift count exceeding
// MaxShift.
func safeLshift(n ASTNode, shift int64) {
	if shift > MaxShift {
		raise(RuntimeError, n, "shift %d exceeds MAX_SHIFT (%d)", shift, MaxShift)
	}
}

// safeOpen implements safe_open: only read modes, bounded buffering.
func safeOpen(n ASTNode, path, mode string, buffering int) {
	switch mode {
	case "r", "rb", "rU", "":
	default:
		raise(RuntimeError, n, "socket/file write-mode access is not allowed in safe mode (mode=%q)", mode)
	}
	if buffering > MaxOpenBuf {
		raise(RuntimeError, n, "buffering %d exceeds the safe limit (%d)", buffering, MaxOpenBuf)
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validSymbolName implements valid_symbol_name: identifier grammar, not a
// reserved word.
func validSymbolName(s string) bool {
	return identRe.MatchString(s) && !symbol.IsReservedWord(s)
}
