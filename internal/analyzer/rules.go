package analyzer

import "github.com/graphweave/graphweave/internal/config"

// Entity type tags produced by the default rule set. Custom types may be
// registered via config.AnalyzerConfig without touching this list.
const (
	TypePerson       = "PERSON"
	TypeOrganization = "ORGANIZATION"
	TypeTech         = "TECH"
	TypeConcept      = "CONCEPT"
	TypeLocation     = "LOCATION"
)

// Relation labels produced by the default template set.
const (
	LabelWorksAt       = "WORKS_AT"
	LabelCreated       = "CREATED"
	LabelLocatedIn     = "LOCATED_IN"
	LabelUses          = "USES"
	LabelSpecializesIn = "SPECIALIZES_IN"
	LabelRelatesTo     = "RELATES_TO"
)

// DefaultEntityRules returns the built-in entity rule set in priority order.
// Earlier rules claim overlapping spans first, so known vocabularies outrank
// the broad capitalized-word heuristics: "Mountain View" must resolve as a
// LOCATION before the two-capitalized-words PERSON rule sees it.
//
// RE2 has no lookahead, so the verb-anchored PERSON rule captures the name
// in group 1 instead of asserting what follows.
func DefaultEntityRules() []config.EntityRule {
	return []config.EntityRule{
		{
			Type:    TypeTech,
			Pattern: `\b(?:AI|ML|API|NLP|GPU|SQL|HTTP|JSON)\b`,
		},
		{
			Type:    TypeTech,
			Pattern: `(?i)\b(?:machine learning|neural network|deep learning|data science|python|javascript|typescript|tensorflow|pytorch|kubernetes|docker|sqlite|postgres|algorithm|database|server|cloud|compiler|framework)\b`,
		},
		{
			Type:    TypeOrganization,
			Pattern: `\b(?:Google|Microsoft|Apple|Amazon|Meta|OpenAI|Anthropic|Netflix|IBM|Intel|Mozilla)\b|\b[A-Z][a-z]+ (?:Inc|Corp|LLC|Ltd|Labs|Company|University|Foundation)\b`,
		},
		{
			Type:    TypeLocation,
			Pattern: `\b(?:Mountain View|California|New York|San Francisco|Seattle|Austin|London|Berlin|Paris|Tokyo)\b|\b[A-Z][a-z]+ (?:City|Valley|Island|Street|Avenue|Road)\b`,
		},
		{
			Type:    TypePerson,
			Pattern: `\b([A-Z][a-z]+)\s+(?:works|worked|created|developed|built|designed|specializes|focuses|joined|leads|manages|wrote)\b`,
			Group:   1,
		},
		{
			Type:    TypePerson,
			Pattern: `\b[A-Z][a-z]+ [A-Z][a-z]+\b`,
		},
		{
			Type:    TypeConcept,
			Pattern: `(?i)\b(?:research|development|engineering|training|testing|security|innovation|design)\b`,
		},
	}
}

// DefaultRelationTemplates returns the built-in relation templates.
// Each template requires a subject token immediately before the trigger
// phrase and a noun phrase after it. Pronoun subjects ("he works at ...")
// are matched and kept literal; they resolve only if an entity with that
// surface form exists, which keeps the pipeline free of coreference logic.
func DefaultRelationTemplates() []config.RelationTemplate {
	return []config.RelationTemplate{
		{
			Label:        LabelWorksAt,
			Pattern:      `(?i)\b(\w+)\s+works\s+at\s+(\w+)`,
			SubjectGroup: 1, ObjectGroup: 2,
		},
		{
			Label:        LabelWorksAt,
			Pattern:      `(?i)\b(\w+)\s+is\s+employed\s+(?:by\s+)?(\w+)`,
			SubjectGroup: 1, ObjectGroup: 2,
		},
		{
			Label:        LabelCreated,
			Pattern:      `(?i)\b(\w+)\s+(?:created|developed|built)\s+(?:a\s+|an\s+|the\s+)?(\w+(?:\s+\w+)*)`,
			SubjectGroup: 1, ObjectGroup: 2,
		},
		{
			Label:        LabelCreated,
			Pattern:      `(?i)\b(\w+(?:\s+\w+)*?)\s+was\s+created\s+by\s+(\w+)`,
			SubjectGroup: 2, ObjectGroup: 1, // passive voice: swap endpoints
		},
		{
			Label:        LabelLocatedIn,
			Pattern:      `(?i)\b(\w+)\s+is\s+(?:located\s+)?in\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`,
			SubjectGroup: 1, ObjectGroup: 2,
		},
		{
			Label:        LabelUses,
			Pattern:      `(?i)\b(\w+)\s+uses\s+(\w+(?:\s+\w+)*)`,
			SubjectGroup: 1, ObjectGroup: 2,
		},
		{
			Label:        LabelUses,
			Pattern:      `(?i)\b(\w+)\s+is\s+built\s+(?:with|using)\s+(\w+(?:\s+\w+)*)`,
			SubjectGroup: 1, ObjectGroup: 2,
		},
		{
			Label:        LabelSpecializesIn,
			Pattern:      `(?i)\b(\w+)\s+(?:specializes\s+in|focuses\s+on)\s+(\w+(?:\s+\w+)*)`,
			SubjectGroup: 1, ObjectGroup: 2,
		},
		{
			Label:        LabelRelatesTo,
			Pattern:      `(?i)\b(\w+(?:\s+\w+)*?)\s+(?:relates\s+to|is\s+connected\s+to|is\s+associated\s+with)\s+(\w+(?:\s+\w+)*)`,
			SubjectGroup: 1, ObjectGroup: 2,
		},
	}
}
