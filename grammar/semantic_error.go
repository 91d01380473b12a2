package grammar

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	semErrNoProduction        = newSemanticError("a grammar needs at least one production")
	semErrUndefinedStart      = newSemanticError("undefined start symbol")
	semErrStartIsTerminal     = newSemanticError("the start symbol must be a non-terminal symbol")
	semErrReservedName        = newSemanticError("the root symbol name is reserved")
	semErrEmptyName           = newSemanticError("a symbol name must not be empty")
	semErrDuplicateProduction = newSemanticError("duplicate production")
	semErrDuplicateTerminal   = newSemanticError("duplicate terminal")
	semErrDuplicateName       = newSemanticError("duplicate names are not allowed between terminals and non-terminals")
	semErrTermCannotBeSkipped = newSemanticError("a terminal used in productions cannot be skipped")
	semErrDirInvalidName      = newSemanticError("invalid directive name")
	semErrDirInvalidParam     = newSemanticError("invalid parameter")
)

// Warnings don't prevent a grammar from being built. The engine tolerates the constructs they point at.
var (
	semWarnUndefinedNonTerminal = newSemanticError("undefined non-terminal")
	semWarnUnreachable          = newSemanticError("unreachable non-terminal")
	semWarnUnusedTerminal       = newSemanticError("unused terminal")
)
