package ai

import (
	"encoding/json"
	"strings"
)

const identifyTextCeiling = 5000
const categorizeTextCeiling = 2000

func buildIdentifySystemPrompt(req IdentifyRequest, schema map[string]any) string {
	parts := []string{
		"You are a tabletop RPG librarian. Classify the document whose opening pages follow.",
		"Return ONLY JSON that matches the JSON Schema provided.",
		"Use lowercase underscore identifiers for 'game' (dnd, pathfinder, call_of_cthulhu, vampire, werewolf, shadowrun, cyberpunk, generic).",
		"Editions are short forms like 1st, 2nd, 5th, revised, v5.",
		"Book codes are short lowercase forms like phb, dmg, mm, crb, core, keeper.",
		"The caller believes the content kind is: " + string(req.Kind) + ".",
		"Never output null. If a field is unknown, omit it.",
	}
	return strings.Join(parts, " ") + "\n\nJSON Schema:\n" + mustJSON(schema)
}

func buildIdentifyUserPrompt(req IdentifyRequest) string {
	text := req.Text
	if len(text) > identifyTextCeiling {
		text = text[:identifyTextCeiling]
	}
	return "Opening pages:\n" + text
}

func buildCategorizeSystemPrompt(req CategorizeRequest, schema map[string]any) string {
	parts := []string{
		"You are an expert in " + req.Game + " " + req.Edition + " content analysis.",
		"Assign the single most appropriate category to the content.",
		"Allowed categories (enum): " + strings.Join(req.Allowed, ", ") + ".",
		"Use Uncategorized only when nothing fits.",
		"Return ONLY JSON that matches the JSON Schema provided.",
	}
	return strings.Join(parts, " ") + "\n\nJSON Schema:\n" + mustJSON(schema)
}

func buildCategorizeUserPrompt(req CategorizeRequest) string {
	text := req.Text
	if len(text) > categorizeTextCeiling {
		text = text[:categorizeTextCeiling] + "..."
	}
	return "Content to categorize:\n" + text
}

func buildCharactersSystemPrompt(req CharactersRequest, schema map[string]any) string {
	parts := []string{
		"You analyze novel text and report its characters.",
	}
	if req.Pass == PassEnhance {
		parts = append(parts,
			"Enhance the known characters with relationships, personality traits, behavior tags and verbatim quotes.",
			"Known characters: "+strings.Join(req.Prior, ", ")+".")
	} else {
		parts = append(parts, "Discover every named character appearing in the text.")
	}
	parts = append(parts, "Return ONLY JSON that matches the JSON Schema provided.")
	return strings.Join(parts, " ") + "\n\nJSON Schema:\n" + mustJSON(schema)
}

func buildCharactersUserPrompt(req CharactersRequest) string {
	return "Novel text:\n" + req.Text
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
