package hooks

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

// Result reports what Apply did.
type Result struct {
	// Applied is false when there was no usable container; nothing changed.
	Applied bool `json:"applied"`
	// Inserted is true when a new block was written, false when the cursor
	// only moved into an existing block.
	Inserted bool `json:"inserted"`
	// Cursor is where the caret should go.
	Cursor editor.Position `json:"cursor"`
	// Line is the header line of the target block.
	Line int `json:"line"`
}

// Inserter applies hook actions to a buffer.
type Inserter struct {
	Buffer     editor.Buffer
	IndentUnit string
	Logger     *slog.Logger
}

// NewInserter creates an inserter with the default indent unit.
func NewInserter(buf editor.Buffer, logger *slog.Logger) *Inserter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Inserter{Buffer: buf, IndentUnit: DefaultIndentUnit, Logger: logger}
}

func (ins *Inserter) unit() string {
	if ins.IndentUnit == "" {
		return DefaultIndentUnit
	}
	return ins.IndentUnit
}

func (ins *Inserter) logger() *slog.Logger {
	if ins.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return ins.Logger
}

// Apply inserts or focuses the hook of the given kind in the container at
// cursorLine (or the first container in the buffer).
//
// When the hook already exists the cursor moves into its body and the text is
// untouched. Otherwise a three-line block is written at InsertLine, followed
// by one blank line when something else follows it and two when it lands
// right before the container's close brace. The cursor goes on the new body
// line. A missing or malformed container is a silent no-op.
func (ins *Inserter) Apply(cursorLine int, kind catalog.HookKind) Result {
	log := ins.logger()
	if !kind.Valid() {
		return Result{}
	}

	bounds, ok := FindFeatureBounds(ins.Buffer, cursorLine)
	if !ok {
		log.Debug("no feature container", "line", cursorLine, "hook", kind.String())
		return Result{}
	}

	if bounds.OpenBraceLine == bounds.CloseBraceLine {
		bounds, ok = ins.expand(bounds)
		if !ok {
			return Result{}
		}
	}

	analysis := Analyze(ins.Buffer, bounds, ins.unit())

	if block, exists := analysis.Hooks[kind]; exists {
		body := ins.Buffer.LineText(block.BodyLine)
		col := utf8.RuneCountInString(body) + 1
		if block.BodyLine == block.OpenBraceLine {
			col = block.OpenBraceColumn + 1
		}
		log.Debug("hook exists", "hook", kind.String(), "line", block.StartLine)
		return Result{
			Applied: true,
			Cursor:  editor.Position{Line: block.BodyLine, Column: col},
			Line:    block.StartLine,
		}
	}

	line := InsertLine(analysis, kind)
	indent := analysis.MemberIndent
	bodyIndent := indent + ins.unit()

	var b strings.Builder
	b.WriteString(indent + kind.Header() + " {\n")
	b.WriteString(bodyIndent + "\n")
	b.WriteString(indent + "}\n")
	if line >= bounds.CloseBraceLine {
		b.WriteString("\n\n")
	} else {
		b.WriteString("\n")
	}

	ins.Buffer.InsertOrReplace(editor.Point(editor.Position{Line: line, Column: 1}), b.String())
	log.Debug("hook inserted", "hook", kind.String(), "line", line)

	return Result{
		Applied:  true,
		Inserted: true,
		Cursor:   editor.Position{Line: line + 1, Column: utf8.RuneCountInString(bodyIndent) + 1},
		Line:     line,
	}
}

// expand moves the close brace of a one-line container onto its own line,
// keeping any inline content as the first member.
func (ins *Inserter) expand(bounds FeatureBounds) (FeatureBounds, bool) {
	line := ins.Buffer.LineText(bounds.OpenBraceLine)
	runes := []rune(line)
	inner := strings.TrimSpace(string(runes[bounds.OpenBraceColumn : bounds.CloseBraceColumn-1]))

	replacement := "\n"
	if inner != "" {
		replacement += bounds.ContainerIndent + ins.unit() + inner + "\n"
	}
	replacement += bounds.ContainerIndent

	ins.Buffer.InsertOrReplace(editor.Range{
		Start: editor.Position{Line: bounds.OpenBraceLine, Column: bounds.OpenBraceColumn + 1},
		End:   editor.Position{Line: bounds.CloseBraceLine, Column: bounds.CloseBraceColumn},
	}, replacement)

	return FindFeatureBounds(ins.Buffer, bounds.DeclarationLine)
}
