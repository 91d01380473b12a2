package parser

// SyntaxError is the cause of an error the grammar parser reports. verr.SpecError carries it along
// with the position.
type SyntaxError struct {
	message string
}

func newSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		message: message,
	}
}

func (e *SyntaxError) Error() string {
	return e.message
}

// lexical errors
var (
	synErrIDInvalidChar            = newSyntaxError("an identifier may consist of only a-z, 0-9, and _")
	synErrIDInvalidUnderscorePos   = newSyntaxError("an identifier must not start or end with _")
	synErrIDConsecutiveUnderscores = newSyntaxError("an identifier must not contain __")
	synErrIDInvalidDigitsPos       = newSyntaxError("an identifier must not start with a digit")
	synErrUnclosedTerminal         = newSyntaxError("a pattern is missing its closing \" before the end of the line")
	synErrUnclosedString           = newSyntaxError("a string is missing its closing ' before the end of the line")
	synErrIncompletedEscSeq        = newSyntaxError("a backslash must be followed by a character")
	synErrEmptyPattern             = newSyntaxError("a pattern must not be empty")
	synErrEmptyString              = newSyntaxError("a string must not be empty")
)

// syntax errors
var (
	synErrInvalidToken           = newSyntaxError("invalid token")
	synErrTopLevelDirNoSemicolon = newSyntaxError("a top-level directive must end with ;")
	synErrNoProductionName       = newSyntaxError("a production must start with its name")
	synErrNoColon                = newSyntaxError("a production name must be followed by :")
	synErrNoSemicolon            = newSyntaxError("a production must end with ;")
	synErrNoDirectiveName        = newSyntaxError("# must be followed by a directive name")
	synErrPatternInAlt           = newSyntaxError("a pattern cannot appear in an alternative; define a terminal with it and use the terminal's name")
)
