package amend

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/coolbeans/gazette/pkg/types"
)

// maxRangeSpan is the widest "items N to M" range that is expanded. Wider
// ranges keep only their endpoints.
const maxRangeSpan = 200

// Recognizer turns Column II detail lines into Instructions. It holds only
// compiled patterns and is safe for concurrent use.
type Recognizer struct {
	// Line framing
	labelPattern *regexp.Regexp

	// Insertion segments
	itemPrefixPattern      *regexp.Regexp
	afterItemPattern       *regexp.Regexp
	trailingPunctuation    *regexp.Regexp
	instructionWordPattern *regexp.Regexp

	// Omission forms
	itemKeywordPattern *regexp.Regexp
	numberListPattern  *regexp.Regexp
	numberTermPattern  *regexp.Regexp
	bareNumberPattern  *regexp.Regexp
}

// NewRecognizer creates a Recognizer with all patterns compiled.
func NewRecognizer() *Recognizer {
	return &Recognizer{
		// "Inserted: ..." or "Omitted: ...", label is everything before the first colon
		labelPattern: regexp.MustCompile(
			`^([A-Za-z][A-Za-z0-9 ()]*?)\s*:\s*(.*)$`,
		),

		// "item 3 — " or "item 3 -- " or "Item 12 – " at the start of a segment
		itemPrefixPattern: regexp.MustCompile(
			`(?i)^item\s+(\d+)\s*[\x{2014}\x{2013}\-]+\s*`,
		),
		// "after item 3", optionally preceded by a comma
		afterItemPattern: regexp.MustCompile(
			`(?i),?\s*\bafter\s+item\s+\d+`,
		),
		trailingPunctuation: regexp.MustCompile(
			`[\s.;]+$`,
		),
		// an unlabelled line opening with an amending verb is narrative, not a name
		instructionWordPattern: regexp.MustCompile(
			`(?i)^(?:insert|omit|add|delet|substitut|amend|renumber)\w*\b`,
		),

		// "item", "items", "item(s)" as a whole word
		itemKeywordPattern: regexp.MustCompile(
			`(?i)\bitems?(?:\(s\))?\b`,
		),
		// "2, 4 and 6" or "2 & 3" or "26 to 30" as the whole body
		numberListPattern: regexp.MustCompile(
			`(?i)^\d+(?:\s*(?:,|and|&|to|[\x{2014}\x{2013}\-])\s*\d+)*\.?$`,
		),
		// one list term: a range "4 to 9" / "4-9" or a single number
		numberTermPattern: regexp.MustCompile(
			`(?i)(\d+)\s*(?:to|[\x{2014}\x{2013}\-])\s*(\d+)|(\d+)`,
		),
		bareNumberPattern: regexp.MustCompile(
			`\b\d+\b`,
		),
	}
}

// ParseInsertLine parses a detail line from an ADD entry. The label
// ("Inserted:") is optional. The body may list several comma-separated
// departments, each with its own optional "item N —" prefix. An "after item
// M" clause is a narrative ordering hint and is discarded.
func (recognizer *Recognizer) ParseInsertLine(line string) (Instruction, error) {
	normalizedLine := normalizeDetailText(line)
	if normalizedLine == "" {
		return Instruction{}, fmt.Errorf("%w: empty line", ErrUnparsableDetail)
	}

	body, hasLabel := recognizer.splitLabel(normalizedLine)
	if !hasLabel && recognizer.instructionWordPattern.MatchString(normalizedLine) {
		return Instruction{}, fmt.Errorf("%w: %q reads as an instruction, not a department", ErrUnparsableDetail, line)
	}
	body = recognizer.afterItemPattern.ReplaceAllString(body, "")

	instruction := Instruction{Kind: InstructionInsert, Text: line}
	for _, segment := range strings.Split(body, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		change, err := recognizer.parseInsertSegment(segment)
		if err != nil {
			return Instruction{}, fmt.Errorf("%w: %q: %v", ErrUnparsableDetail, line, err)
		}
		instruction.Departments = append(instruction.Departments, change)
	}

	if len(instruction.Departments) == 0 {
		return Instruction{}, fmt.Errorf("%w: %q names no department", ErrUnparsableDetail, line)
	}
	return instruction, nil
}

// parseInsertSegment maps one segment to a DepartmentChange: group 1 of
// itemPrefixPattern is the position and the remainder is the name.
func (recognizer *Recognizer) parseInsertSegment(segment string) (types.DepartmentChange, error) {
	var change types.DepartmentChange

	if prefixMatch := recognizer.itemPrefixPattern.FindStringSubmatch(segment); prefixMatch != nil {
		position, err := strconv.Atoi(prefixMatch[1])
		if err != nil {
			return change, fmt.Errorf("item number %q: %w", prefixMatch[1], err)
		}
		if position >= 1 {
			change.Position = types.IntPtr(position)
		}
		segment = segment[len(prefixMatch[0]):]
	}

	segment = recognizer.trailingPunctuation.ReplaceAllString(segment, "")
	change.Name = strings.TrimSpace(segment)

	if change.Name == "" {
		return change, fmt.Errorf("segment has no department name")
	}
	return change, nil
}

// ParseOmitLine parses a detail line from an OMIT entry. Lines mentioning
// "item"/"items" followed by numbers are positional and every number after
// the keyword is an item number. A labelled line whose body is a bare number list is also
// positional; any other labelled body is a list of department names.
// Unlabelled lines fall back to every standalone number they contain.
func (recognizer *Recognizer) ParseOmitLine(line string) (Instruction, error) {
	normalizedLine := normalizeDetailText(line)
	if normalizedLine == "" {
		return Instruction{}, fmt.Errorf("%w: empty line", ErrUnparsableDetail)
	}

	if keywordLocation := recognizer.itemKeywordPattern.FindStringIndex(normalizedLine); keywordLocation != nil {
		if positions := recognizer.extractPositions(normalizedLine[keywordLocation[1]:]); len(positions) > 0 {
			return Instruction{Kind: InstructionOmitPositions, Positions: positions, Text: line}, nil
		}
	}

	body, hasLabel := recognizer.splitLabel(normalizedLine)
	if hasLabel {
		trimmedBody := strings.TrimSpace(body)
		if recognizer.numberListPattern.MatchString(trimmedBody) {
			return Instruction{Kind: InstructionOmitPositions, Positions: recognizer.extractPositions(trimmedBody), Text: line}, nil
		}
		names := recognizer.splitNames(trimmedBody)
		if len(names) == 0 {
			return Instruction{}, fmt.Errorf("%w: %q omits nothing", ErrUnparsableDetail, line)
		}
		return Instruction{Kind: InstructionOmitNames, Names: names, Text: line}, nil
	}

	var positions []int
	for _, number := range recognizer.bareNumberPattern.FindAllString(normalizedLine, -1) {
		if position, err := strconv.Atoi(number); err == nil {
			positions = append(positions, position)
		}
	}
	if len(positions) == 0 {
		return Instruction{}, fmt.Errorf("%w: %q has no item numbers", ErrUnparsableDetail, line)
	}
	return Instruction{Kind: InstructionOmitPositions, Positions: positions, Text: line}, nil
}

// extractPositions reads a comma/"and" joined list of item numbers,
// expanding ranges.
func (recognizer *Recognizer) extractPositions(text string) []int {
	var positions []int
	for _, termMatch := range recognizer.numberTermPattern.FindAllStringSubmatch(text, -1) {
		if termMatch[3] != "" {
			if position, err := strconv.Atoi(termMatch[3]); err == nil {
				positions = append(positions, position)
			}
			continue
		}

		start, startErr := strconv.Atoi(termMatch[1])
		end, endErr := strconv.Atoi(termMatch[2])
		if startErr != nil || endErr != nil {
			continue
		}
		if end < start || end-start > maxRangeSpan {
			positions = append(positions, start, end)
			continue
		}
		for position := start; position <= end; position++ {
			positions = append(positions, position)
		}
	}
	return positions
}

func (recognizer *Recognizer) splitNames(body string) []string {
	var names []string
	body = recognizer.afterItemPattern.ReplaceAllString(body, "")
	for _, segment := range strings.Split(body, ",") {
		segment = strings.TrimSpace(recognizer.trailingPunctuation.ReplaceAllString(strings.TrimSpace(segment), ""))
		if segment != "" {
			names = append(names, segment)
		}
	}
	return names
}

// splitLabel separates "Label: body". It reports false when the line has no
// label, returning the line unchanged.
func (recognizer *Recognizer) splitLabel(line string) (string, bool) {
	labelMatch := recognizer.labelPattern.FindStringSubmatch(line)
	if labelMatch == nil {
		return line, false
	}
	return labelMatch[2], true
}

// normalizeDetailText collapses runs of whitespace so patterns can assume
// single spaces.
func normalizeDetailText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
