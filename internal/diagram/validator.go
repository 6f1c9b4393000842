// Package diagram implements validation, syntax checking, repair, and
// rendering for PlantUML artifacts. Validation is a pure text pipeline;
// checking and rendering shell out to the PlantUML tool; repair drives
// a bounded loop that asks the completion gateway to fix what the rule
// pipeline cannot.
package diagram

import (
	"errors"
	"regexp"
	"strings"

	"github.com/patternscribe/scribe/internal/domain"
)

// ErrUnrepairable indicates the rule pipeline cannot produce
// structurally sound text from the input.
var ErrUnrepairable = errors.New("diagram source unrepairable by rules")

// FixRule is a pure text transformation. Each rule is independently
// idempotent: applying it to its own output changes nothing.
type FixRule struct {
	Name  string
	Apply func(string) string
}

// Validator normalizes raw diagram text through an ordered rule
// pipeline, then enforces structural invariants. It holds no state and
// performs no I/O; the same input always yields the same output.
type Validator struct {
	rules []FixRule
}

// NewValidator builds the rule pipeline for one diagram type. Rule
// order is fixed; relationship and member-body rules only activate for
// types whose grammar forbids the constructs.
func NewValidator(diagramType domain.DiagramType) *Validator {
	rules := []FixRule{
		{Name: "collapse_label_breaks", Apply: collapseLabelBreaks},
		{Name: "keyword_spacing", Apply: keywordSpacing},
		{Name: "inline_note_to_block", Apply: inlineNoteToBlock},
	}
	if !diagramType.Structural() {
		rules = append(rules,
			FixRule{Name: "remap_structural_operators", Apply: remapStructuralOperators},
			FixRule{Name: "strip_member_bodies", Apply: stripMemberBodies},
		)
	}
	return &Validator{rules: rules}
}

// Validate folds the input through every rule in order and then checks
// two hard invariants: a matching @startuml/@enduml pair and balanced
// braces. Returns ErrUnrepairable when either invariant fails.
func (v *Validator) Validate(raw string) (string, error) {
	fixed := raw
	for _, rule := range v.rules {
		fixed = rule.Apply(fixed)
	}

	if !hasMarkerPair(fixed) {
		return "", ErrUnrepairable
	}
	if !bracesBalanced(fixed) {
		return "", ErrUnrepairable
	}
	return fixed, nil
}

// Rules exposes the pipeline for per-rule testing.
func (v *Validator) Rules() []FixRule { return v.rules }

var quotedLabelRe = regexp.MustCompile(`"[^"]*"`)

// collapseLabelBreaks flattens literal \n escapes inside quoted labels
// into single spaces. Multi-line labels inside quotes break several
// PlantUML constructs.
func collapseLabelBreaks(text string) string {
	return quotedLabelRe.ReplaceAllStringFunc(text, func(label string) string {
		label = strings.ReplaceAll(label, `\n`, " ")
		return strings.Join(strings.Fields(label), " ")
	})
}

var keywordSpacingRe = regexp.MustCompile(
	`(?m)^(\s*)(actor|participant|usecase|component|package|class|interface|rectangle|database|entity|node|queue|boundary|control|collections)(["(])`)

// keywordSpacing inserts the mandatory space between a declaration
// keyword and a quoted or parenthesized name glued to it.
func keywordSpacing(text string) string {
	return keywordSpacingRe.ReplaceAllString(text, "$1$2 $3")
}

var inlineNoteRe = regexp.MustCompile(
	`(?m)^(\s*)(note\s+(?:left|right|top|bottom)(?:\s+of\s+[^:\n]+?)?|note\s+over\s+[^:\n]+?)\s*:\s*(.+)$`)

// inlineNoteToBlock rewrites inline "note ...: text" annotations into
// the block form. Inline notes are rejected by several diagram
// grammars; block notes are accepted by all of them.
func inlineNoteToBlock(text string) string {
	return inlineNoteRe.ReplaceAllString(text, "$1$2\n$1  $3\n$1end note")
}

// structuralOperators are legal only in class diagrams. Longest
// operators come first so partial matches never fire.
var structuralOperators = []string{"<|--", "--|>", "<|..", "..|>", "*--", "--*", "o--", "--o"}

// remapStructuralOperators downgrades composition, aggregation, and
// inheritance arrows to a generic dependency arrow. These operators are
// invalid outside structural diagrams.
func remapStructuralOperators(text string) string {
	for _, op := range structuralOperators {
		text = strings.ReplaceAll(text, op, "..>")
	}
	return text
}

var memberBodyOpenRe = regexp.MustCompile(
	`(?m)^\s*(actor|participant|usecase|boundary|control|entity|database|collections|queue)\b[^{}\n]*\{\s*$`)

// stripMemberBodies removes {...} member lists from node kinds whose
// grammar has no members. Package and rectangle bodies are nesting, not
// member lists, and are left alone.
func stripMemberBodies(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	depth := 0
	for _, line := range lines {
		if depth > 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "}" {
				depth--
				continue
			}
			if strings.HasSuffix(trimmed, "{") {
				depth++
			}
			continue
		}
		if memberBodyOpenRe.MatchString(line) {
			depth = 1
			out = append(out, strings.TrimRight(strings.TrimSuffix(strings.TrimRight(line, " \t"), "{"), " \t"))
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// hasMarkerPair checks that the text opens with @startuml and closes
// with @enduml, in that order.
func hasMarkerPair(text string) bool {
	start := strings.Index(text, "@startuml")
	end := strings.LastIndex(text, "@enduml")
	return start >= 0 && end > start
}

// bracesBalanced checks that every opening brace has a closing one.
// Braces inside quoted labels are ignored.
func bracesBalanced(text string) bool {
	depth := 0
	inQuote := false
	for _, r := range text {
		switch r {
		case '"':
			inQuote = !inQuote
		case '{':
			if !inQuote {
				depth++
			}
		case '}':
			if !inQuote {
				depth--
				if depth < 0 {
					return false
				}
			}
		}
	}
	return depth == 0
}
