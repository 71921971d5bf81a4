package enhance

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/rpger/content-extractor/constants"
)

// Result is one enhancement pass over a piece of text.
type Result struct {
	Text        string
	BeforeScore float64
	AfterScore  float64
	Corrections map[string]int
}

// Correction kinds, as reported in metrics.
const (
	KindWhitespace   = "whitespace"
	KindOCRSub       = "ocr_substitution"
	KindRunOnSplit   = "runon_split"
	KindMissingSpace = "missing_space"
	KindSpell        = "spell"
)

// ocrSubs are the configured OCR artifact substitutions; each applies only
// when the replacement turns a non-word into a dictionary word.
var ocrSubs = [][2]string{
	{"rn", "m"},
	{"vv", "w"},
	{"0", "o"},
	{"1", "l"},
}

// Enhancer cleans OCR artifacts and scores text quality. All enhancements
// are idempotent on already-clean text.
type Enhancer struct {
	dict      *Dictionary
	protected map[string]struct{}
	mode      constants.EnhanceMode
	logger    *slog.Logger
}

// New builds an enhancer. protected lists game jargon that spell correction
// must never rewrite; the terms are also added to the dictionary.
func New(mode constants.EnhanceMode, protected []string, logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	prot := make(map[string]struct{}, len(protected))
	for _, p := range protected {
		prot[strings.ToLower(p)] = struct{}{}
	}
	return &Enhancer{
		dict:      NewDictionary(protected...),
		protected: prot,
		mode:      mode,
		logger:    logger,
	}
}

// Enhance runs the configured pipeline over text.
func (e *Enhancer) Enhance(text string) Result {
	res := Result{
		Text:        text,
		BeforeScore: Score(text, e.dict),
		Corrections: make(map[string]int),
	}
	if e.mode == constants.EnhanceOff || text == "" {
		res.AfterScore = res.BeforeScore
		return res
	}

	out := e.normalizeWhitespace(text, res.Corrections)
	out = e.mapTokens(out, res.Corrections)
	res.Text = out
	res.AfterScore = Score(out, e.dict)
	return res
}

// normalizeWhitespace collapses space runs, normalizes line endings, strips
// trailing spaces and preserves paragraph breaks (two or more newlines).
func (e *Enhancer) normalizeWhitespace(text string, counts map[string]int) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var b strings.Builder
	b.Grow(len(normalized))
	newlines := 0
	spaces := 0
	changed := false
	flushGap := func() {
		if newlines > 0 {
			if newlines >= 2 {
				b.WriteString("\n\n")
			} else {
				b.WriteByte('\n')
			}
			if newlines > 2 || spaces > 0 {
				changed = true
			}
		} else if spaces > 0 {
			b.WriteByte(' ')
			if spaces > 1 {
				changed = true
			}
		}
		newlines, spaces = 0, 0
	}
	for _, r := range normalized {
		switch r {
		case '\n':
			newlines++
		case ' ', '\t':
			spaces++
			if newlines > 0 {
				changed = true // trailing/leading space around a newline
				spaces = 0
			}
		default:
			flushGap()
			b.WriteRune(r)
		}
	}
	if newlines > 0 {
		b.WriteByte('\n')
		if newlines > 1 || spaces > 0 {
			changed = true
		}
	} else if spaces > 0 {
		changed = true
	}
	if normalized != text {
		changed = true
	}
	if changed {
		counts[KindWhitespace]++
	}
	return b.String()
}

// mapTokens walks whitespace-delimited tokens, applying the word-level
// fixes while preserving the surrounding layout exactly.
func (e *Enhancer) mapTokens(text string, counts map[string]int) string {
	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for i < len(text) {
		if text[i] == ' ' || text[i] == '\n' || text[i] == '\t' {
			b.WriteByte(text[i])
			i++
			continue
		}
		j := i
		for j < len(text) && text[j] != ' ' && text[j] != '\n' && text[j] != '\t' {
			j++
		}
		b.WriteString(e.fixToken(text[i:j], counts))
		i = j
	}
	return b.String()
}

func (e *Enhancer) fixToken(token string, counts map[string]int) string {
	core, prefix, suffix := trimPunct(token)
	if core == "" {
		return token
	}
	fixed := core

	if out, ok := e.splitRunOn(fixed); ok {
		counts[KindRunOnSplit]++
		return prefix + out + suffix
	}
	if out, ok := e.insertMissingSpace(fixed); ok {
		counts[KindMissingSpace]++
		return prefix + out + suffix
	}
	if out, ok := e.ocrSubstitute(fixed); ok {
		counts[KindOCRSub]++
		fixed = out
	}
	if out, ok := e.spellCorrect(fixed); ok {
		counts[KindSpell]++
		fixed = out
	}
	return prefix + fixed + suffix
}

// splitRunOn inserts a space at a lowercase→uppercase boundary when both
// halves are dictionary words and the joined form is not.
func (e *Enhancer) splitRunOn(token string) (string, bool) {
	if e.dict.Contains(token) {
		return token, false
	}
	for i := 1; i < len(token); i++ {
		if isLower(token[i-1]) && isUpper(token[i]) {
			left, right := token[:i], token[i:]
			if e.dict.Contains(left) && e.dict.Contains(right) {
				return left + " " + right, true
			}
		}
	}
	return token, false
}

// insertMissingSpace splits a likely letter/digit join, e.g. "Level1".
func (e *Enhancer) insertMissingSpace(token string) (string, bool) {
	if e.dict.Contains(token) {
		return token, false
	}
	for i := 1; i < len(token); i++ {
		boundary := (isLetter(token[i-1]) && isDigit(token[i])) ||
			(isDigit(token[i-1]) && isLetter(token[i]))
		if !boundary {
			continue
		}
		left, right := token[:i], token[i:]
		leftOK := allDigits(left) || e.dict.Contains(left)
		rightOK := allDigits(right) || e.dict.Contains(right)
		if leftOK && rightOK {
			return left + " " + right, true
		}
	}
	return token, false
}

// ocrSubstitute applies the configured substitutions when they produce a
// dictionary hit from a non-word.
func (e *Enhancer) ocrSubstitute(token string) (string, bool) {
	if e.dict.Contains(token) {
		return token, false
	}
	for _, sub := range ocrSubs {
		if !strings.Contains(token, sub[0]) {
			continue
		}
		candidate := strings.ReplaceAll(token, sub[0], sub[1])
		if e.dict.Contains(candidate) {
			return matchCase(token, candidate), true
		}
	}
	return token, false
}

func (e *Enhancer) spellCorrect(token string) (string, bool) {
	if len(token) < 4 || !allLetters(token) {
		return token, false
	}
	lower := strings.ToLower(token)
	if _, prot := e.protected[lower]; prot {
		return token, false
	}
	if e.dict.Contains(token) {
		return token, false
	}
	maxDist := 2
	if e.mode == constants.EnhanceAggressive {
		maxDist = 3
	} else if isUpper(token[0]) {
		// Proper-noun-looking token; normal mode leaves it alone.
		return token, false
	}
	suggestion := e.dict.Suggest(token, maxDist)
	if suggestion == "" {
		return token, false
	}
	return matchCase(token, suggestion), true
}

func trimPunct(token string) (core, prefix, suffix string) {
	start, end := 0, len(token)
	for start < end && !isLetter(token[start]) && !isDigit(token[start]) {
		start++
	}
	for end > start && !isLetter(token[end-1]) && !isDigit(token[end-1]) {
		end--
	}
	return token[start:end], token[:start], token[end:]
}

func matchCase(original, replacement string) string {
	if original == "" || replacement == "" {
		return replacement
	}
	if isUpper(original[0]) {
		return strings.ToUpper(replacement[:1]) + replacement[1:]
	}
	return replacement
}

func isLower(b byte) bool  { return b >= 'a' && b <= 'z' }
func isUpper(b byte) bool  { return b >= 'A' && b <= 'Z' }
func isLetter(b byte) bool { return isLower(b) || isUpper(b) }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return len(s) > 0
}

func allLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && r != '\'' {
			return false
		}
	}
	return len(s) > 0
}
