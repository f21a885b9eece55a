package diag

type Code uint16

const (
	UnknownCode Code = 0

	// Template analysis
	ParseError          Code = 1001
	BindError           Code = 1002
	DuplicateName       Code = 1003
	NonPascalCase       Code = 1004
	NonConstantTemplate Code = 1005
	ExceptionNotFirst   Code = 1006

	// Host / IO
	IOError     Code = 4001
	ConfigError Code = 4002
)

// Codes lists every known code in explain/config order.
var Codes = []Code{
	ParseError,
	BindError,
	DuplicateName,
	NonPascalCase,
	NonConstantTemplate,
	ExceptionNotFirst,
	IOError,
	ConfigError,
}

var codeIDs = map[Code]string{
	ParseError:          "PARSE_ERROR",
	BindError:           "BIND_ERROR",
	DuplicateName:       "DUPLICATE_NAME",
	NonPascalCase:       "NON_PASCAL_CASE",
	NonConstantTemplate: "NON_CONSTANT_TEMPLATE",
	ExceptionNotFirst:   "EXCEPTION_NOT_FIRST",
	IOError:             "IO_ERROR",
	ConfigError:         "CONFIG_ERROR",
}

var codeTitles = map[Code]string{
	UnknownCode:         "Unknown diagnostic",
	ParseError:          "Malformed message template syntax",
	BindError:           "Template property and argument mismatch",
	DuplicateName:       "Repeated named property in one template",
	NonPascalCase:       "Named property does not use PascalCase",
	NonConstantTemplate: "MessageTemplate argument is not a compile-time constant",
	ExceptionNotFirst:   "Exception-typed value argument is not passed first",
	IOError:             "Failed to read a source file",
	ConfigError:         "Invalid configuration",
}

var codeDetails = map[Code]string{
	ParseError: "The template string could not be parsed. The reported span points at the " +
		"offending character inside the original string literal, with escape sequences " +
		"accounted for. Parsing stops at the first structural error.",
	BindError: "Properties bind to the trailing arguments by position. A named property " +
		"without an argument at its ordinal, an argument without a property, or a mix of " +
		"positional and named properties in one template all produce this error.",
	DuplicateName: "A named property appears more than once in the same template; only the " +
		"first occurrence receives a value.",
	NonPascalCase: "Named properties conventionally start with an uppercase letter " +
		"({UserId}, not {userId}). A rename suggestion is attached.",
	NonConstantTemplate: "The template argument is computed at runtime, so its holes cannot " +
		"be checked statically. String.Empty counts as a constant empty template.",
	ExceptionNotFirst: "Logger methods take an optional exception as the leading parameter. " +
		"An exception passed among the value arguments is captured as a plain property " +
		"instead; the attached fix moves it to the front of the call.",
	IOError:     "The file could not be loaded from disk.",
	ConfigError: "mtlint.toml could not be parsed or contains invalid values.",
}

// defaultSeverity is the out-of-the-box severity per code; config may override.
var defaultSeverity = map[Code]Severity{
	ParseError:          SevError,
	BindError:           SevError,
	DuplicateName:       SevError,
	NonPascalCase:       SevWarning,
	NonConstantTemplate: SevWarning,
	ExceptionNotFirst:   SevWarning,
	IOError:             SevError,
	ConfigError:         SevError,
}

// ID returns the stable user-facing identifier, e.g. "PARSE_ERROR".
func (c Code) ID() string {
	if id, ok := codeIDs[c]; ok {
		return id
	}
	return "UNKNOWN"
}

// Title returns a one-line summary of the code.
func (c Code) Title() string {
	if title, ok := codeTitles[c]; ok {
		return title
	}
	return codeTitles[UnknownCode]
}

// Detail returns the longer explanation shown by `mtlint explain`.
func (c Code) Detail() string {
	return codeDetails[c]
}

// DefaultSeverity returns the built-in severity for the code.
func (c Code) DefaultSeverity() Severity {
	if sev, ok := defaultSeverity[c]; ok {
		return sev
	}
	return SevError
}

func (c Code) String() string {
	return c.ID() + ": " + c.Title()
}

// CodeByID resolves a user-facing identifier back to its Code.
func CodeByID(id string) (Code, bool) {
	for code, known := range codeIDs {
		if known == id {
			return code, true
		}
	}
	return UnknownCode, false
}
