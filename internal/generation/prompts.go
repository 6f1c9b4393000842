package generation

import (
	"fmt"
	"strings"

	"github.com/patternscribe/scribe/internal/domain"
)

const narrativeSystemPrompt = "You are a senior software architect writing concise, accurate " +
	"technical documentation in Markdown. Write for engineers who know the codebase exists " +
	"but not how it works."

// patternContext renders patterns and observations into the shared
// prompt context block.
func patternContext(req domain.GenerationRequest, threshold int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Entity: %s (%s)\n\nDetected patterns:\n", req.EntityName, req.EntityType)
	for _, p := range req.Patterns {
		marker := " "
		if p.Significance >= threshold {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s [%s] significance %d", marker, p.Name, p.Category, p.Significance)
		if len(p.Evidence) > 0 {
			fmt.Fprintf(&b, "; evidence: %s", strings.Join(p.Evidence, "; "))
		}
		b.WriteString("\n")
	}

	if len(req.Observations) > 0 {
		b.WriteString("\nObservations:\n")
		for _, obs := range req.Observations {
			fmt.Fprintf(&b, "- %s\n", obs)
		}
	}

	return b.String()
}

// draftPrompt builds the first-pass narrative prompt.
func draftPrompt(req domain.GenerationRequest, threshold int) string {
	return fmt.Sprintf(`Write a Markdown documentation page for "%s".

%s
Cover: purpose, the significant patterns (marked *) and what they imply about the design,
and notable interactions. Use ## section headings. Do not invent details absent from the
patterns and observations.`, req.EntityName, patternContext(req, threshold))
}

// finalPrompt regenerates the narrative with references to every
// diagram that survived validation. Diagram file names only exist after
// the fan-out joins, so this is always a second completion call.
func finalPrompt(req domain.GenerationRequest, threshold int, draft string, artifacts []*domain.DiagramArtifact) string {
	var refs strings.Builder
	for _, a := range artifacts {
		if a.Status != domain.ArtifactValid {
			continue
		}
		stem := a.FileStem(domain.Slug(req.EntityName))
		fmt.Fprintf(&refs, "- %s diagram: diagrams/%s.puml", a.Type, stem)
		if a.Rendered() {
			fmt.Fprintf(&refs, " (image: images/%s.png)", stem)
		}
		refs.WriteString("\n")
	}

	return fmt.Sprintf(`Revise the following documentation page for "%s".

%s
Validated diagrams to reference (embed images with Markdown image syntax where one exists,
otherwise link the source file):
%s
Current draft:
%s

Return the complete revised Markdown document.`,
		req.EntityName, patternContext(req, threshold), refs.String(), draft)
}
