package symbol

// reservedWords is the Python-subset keyword set. valid_symbol_name (spec
// §4.2) rejects any identifier that collides with one of these.
var reservedWords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true,
	"class": true, "continue": true, "def": true, "del": true, "elif": true,
	"else": true, "except": true, "finally": true, "for": true, "from": true,
	"global": true, "if": true, "import": true, "in": true, "is": true,
	"lambda": true, "nonlocal": true, "not": true, "or": true, "pass": true,
	"raise": true, "return": true, "try": true, "while": true, "with": true,
	"yield": true,
}

// IsReservedWord reports whether name is a keyword of the host language's
// Python subset and therefore cannot be used as a variable name.
func IsReservedWord(name string) bool { return reservedWords[name] }
