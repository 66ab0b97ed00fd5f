package asteval

// Logging helpers, similar to those in the "log" package, that prefix
// messages with the source-code location of the offending AST node.

import (
	"fmt"

	"github.com/grailbio/base/log"
)

// Debugf is similar to log.Debug.Printf(...). Arg "n" is the source-code
// location of the message. If "n" is unknown, pass astUnknown.
func Debugf(n ASTNode, format string, args ...interface{}) {
	if log.At(log.Debug) {
		log.Output(2, log.Debug, n.pos().String()+":"+n.String()+": "+fmt.Sprintf(format, args...)) // nolint: errcheck
	}
}

// Errorf is similar to log.Error.Printf(...). Arg "n" is the source-code
// location of the message.
func Errorf(n ASTNode, format string, args ...interface{}) {
	log.Output(2, log.Error, n.pos().String()+":"+n.String()+": "+fmt.Sprintf(format, args...)) // nolint: errcheck
}
