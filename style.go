package diffmod

// Color is a terminal color in "#rrggbb" form, or "" for the default.
type Color string

// Style describes how a run of text is drawn.
type Style struct {
	Foreground string
	Background string
	Bold       bool
}

// Token is a run of source text with a syntax style.
type Token struct {
	Text  string
	Style Style
}

// Tokenizer splits source code into syntax-highlighted tokens.
type Tokenizer interface {
	// Tokenize returns the tokens of source, or nil if language is unknown.
	Tokenize(language, source string) []Token
	// TokenizeLines tokenizes source as a whole and splits the result per
	// line, so multi-line constructs keep their styling.
	TokenizeLines(language, source string) [][]Token
}

// LanguageDetector maps a file path to a language name a Tokenizer knows.
type LanguageDetector interface {
	// DetectFromPath returns the language for path, or "" if unknown.
	DetectFromPath(path string) string
}

// Palette holds the colors of a theme.
type Palette struct {
	Background Color
	Foreground Color

	Added      Color
	Removed    Color
	AddedBg    Color
	RemovedBg  Color
	FileHeader Color
	HunkHeader Color
	Muted      Color

	Keyword  Color
	String   Color
	Number   Color
	Comment  Color
	Operator Color
	Function Color
	Builtin  Color
	Name     Color
}

// LineClass classifies one line of rendered output.
type LineClass int

// Line classes.
const (
	ClassFileHeader LineClass = iota
	ClassHunkHeader
	ClassContext
	ClassAdded
	ClassRemoved
	ClassNoNewline
)

func (c LineClass) String() string {
	switch c {
	case ClassFileHeader:
		return "file-header"
	case ClassHunkHeader:
		return "hunk-header"
	case ClassAdded:
		return "added"
	case ClassRemoved:
		return "removed"
	case ClassNoNewline:
		return "no-newline"
	default:
		return "context"
	}
}
