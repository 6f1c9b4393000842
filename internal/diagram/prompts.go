package diagram

import (
	"fmt"

	"github.com/patternscribe/scribe/internal/domain"
)

const repairSystemPrompt = "You are a PlantUML expert. You fix broken PlantUML source. " +
	"Respond with only the corrected PlantUML source between @startuml and @enduml, no commentary."

// typeGuidance holds diagram-type-specific repair hints embedded in
// repair prompts.
var typeGuidance = map[domain.DiagramType]string{
	domain.DiagramArchitecture: "This is a component diagram. Use [Component] or component declarations " +
		"and package blocks. Do not use class-diagram operators like *-- or <|--; use ..> for dependencies.",
	domain.DiagramSequence: "This is a sequence diagram. Declare participants before use and express " +
		"interactions with -> and --> arrows. Participants cannot have member bodies.",
	domain.DiagramUseCases: "This is a use-case diagram. Use actor and usecase declarations with " +
		"quoted display names. Connect actors to use cases with --> arrows.",
	domain.DiagramClass: "This is a class diagram. Class members belong inside braces; relationships " +
		"use --|>, *--, o-- or ..> operators.",
}

// RepairPrompt builds the completion prompt for one repair attempt. It
// embeds the broken source, the checker diagnostic, and guidance for
// the diagram type.
func RepairPrompt(diagramType domain.DiagramType, brokenText, diagnostic string) string {
	return fmt.Sprintf(`The following PlantUML source fails syntax checking.

Checker diagnostic:
%s

%s

Broken source:
%s

Return the corrected source only.`, diagnostic, typeGuidance[diagramType], brokenText)
}

// GenerationPrompt builds the completion prompt that produces a fresh
// diagram of the given type for an entity.
func GenerationPrompt(diagramType domain.DiagramType, entityName, context string) string {
	return fmt.Sprintf(`Create a PlantUML %s diagram for "%s".

%s

Context:
%s

Respond with only PlantUML source between @startuml and @enduml.`,
		diagramType, entityName, typeGuidance[diagramType], context)
}
