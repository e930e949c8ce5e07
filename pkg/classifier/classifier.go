package classifier

import (
	"regexp"
	"strconv"
	"strings"
)

// LineKind is the closed classification of one OCR receipt line.
type LineKind string

const (
	KindProduct    LineKind = "product"
	KindDiscount   LineKind = "discount"
	KindAdjustment LineKind = "adjustment"
)

// ambiguousConfidenceFactor lowers the OCR confidence of lines that only
// defaulted to product because no cue fired cleanly.
const ambiguousConfidenceFactor = 0.7

type (
	// Classification is the structured result for a single kept line.
	Classification struct {
		Kind       LineKind
		LineNumber int
		RawName    string
		ItemCode   string
		Amount     float64
		Confidence float64
		Ambiguous  bool
	}

	// LineClassifier labels raw OCR lines and extracts name/code/price fields.
	LineClassifier struct {
		discountKeywords   []string
		adjustmentKeywords []string
		abbreviations      map[string]string
		itemCodePattern    *regexp.Regexp
		amountPattern      *regexp.Regexp
		negativePattern    *regexp.Regexp
		numericOnlyPattern *regexp.Regexp
		whitespacePattern  *regexp.Regexp
	}
)

func NewLineClassifier() *LineClassifier {
	return &LineClassifier{
		discountKeywords: []string{
			"discount", "disc", "coupon", "cpn", "promo", "savings", "save",
			"member savings", "instant savings", "tpd", "price drop", "markdown",
		},
		adjustmentKeywords: []string{
			"deposit", "dep", "eco fee", "env fee", "enviro", "recycl",
			"bag fee", "bottle return", "crf", "levy", "adjustment", "adj",
		},
		abbreviations: map[string]string{
			"org":   "organic",
			"orgn":  "organic",
			"whl":   "whole",
			"chkn":  "chicken",
			"brst":  "breast",
			"bnls":  "boneless",
			"sknls": "skinless",
			"grnd":  "ground",
			"bf":    "beef",
			"chz":   "cheese",
			"veg":   "vegetable",
			"choc":  "chocolate",
			"strwb": "strawberry",
			"ylw":   "yellow",
			"wht":   "white",
			"lrg":   "large",
			"sm":    "small",
		},
		// Leading numeric SKU/PLU, 4+ digits so quantities do not match.
		itemCodePattern: regexp.MustCompile(`^\s*(\d{4,13})\s+`),
		// Trailing price, optionally negative and/or currency prefixed.
		amountPattern:      regexp.MustCompile(`(-?)\s*\$?\s*(\d+[.,]\d{2})\s*-?\s*[A-Z]{0,2}\s*$`),
		negativePattern:    regexp.MustCompile(`(-\s*\$?\s*\d+[.,]\d{2})|(\$?\s*\d+[.,]\d{2}\s*-)`),
		numericOnlyPattern: regexp.MustCompile(`^[\d\s.,$#*-]*$`),
		whitespacePattern:  regexp.MustCompile(`\s+`),
	}
}

// ClassifyLine labels one OCR line. The second return value is false when the
// line carries nothing storable (empty or purely numeric) and must be
// dropped without creating a receipt item.
func (c *LineClassifier) ClassifyLine(text string, lineNumber int, ocrConfidence float64) (Classification, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || c.numericOnlyPattern.MatchString(trimmed) {
		return Classification{}, false
	}

	result := Classification{
		Kind:       KindProduct,
		LineNumber: lineNumber,
		Confidence: ocrConfidence,
	}

	rest := trimmed
	if m := c.itemCodePattern.FindStringSubmatch(rest); m != nil {
		result.ItemCode = m[1]
		rest = strings.TrimSpace(rest[len(m[0]):])
	}

	if m := c.amountPattern.FindStringSubmatch(rest); m != nil {
		amount, err := strconv.ParseFloat(strings.Replace(m[2], ",", ".", 1), 64)
		if err == nil {
			result.Amount = amount
			// A minus anywhere besides the captured leading sign is the
			// trailing-minus convention some registers print.
			if m[1] == "-" || strings.Count(m[0], "-") > len(m[1]) {
				result.Amount = -amount
			}
		}
		rest = strings.TrimSpace(rest[:len(rest)-len(m[0])])
	}

	result.RawName = strings.TrimSpace(rest)
	if result.RawName == "" || c.numericOnlyPattern.MatchString(result.RawName) {
		return Classification{}, false
	}

	lower := strings.ToLower(result.RawName)
	negative := result.Amount < 0 || c.negativePattern.MatchString(trimmed)

	switch {
	case c.matchesAny(lower, c.discountKeywords) && negative:
		result.Kind = KindDiscount
	case c.matchesAny(lower, c.adjustmentKeywords):
		result.Kind = KindAdjustment
	case c.matchesAny(lower, c.discountKeywords) || negative:
		// A discount cue without a negative amount (or the reverse) is not
		// conclusive on noisy OCR. Keep it a product at reduced confidence.
		result.Ambiguous = true
		result.Confidence = ocrConfidence * ambiguousConfidenceFactor
	}

	return result, true
}

// ClassifyLines keeps input order; line numbers come from the source lines
// and are never reassigned.
func (c *LineClassifier) ClassifyLines(lines []string, confidences []float64) []Classification {
	results := make([]Classification, 0, len(lines))
	for i, line := range lines {
		conf := 1.0
		if i < len(confidences) {
			conf = confidences[i]
		}
		if classified, ok := c.ClassifyLine(line, i, conf); ok {
			results = append(results, classified)
		}
	}
	return results
}

// NormalizeName expands common receipt abbreviations and collapses noise so
// the same product reads the same across receipts.
func (c *LineClassifier) NormalizeName(rawName string) string {
	lower := strings.ToLower(strings.TrimSpace(rawName))
	lower = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			return r
		}
		return ' '
	}, lower)

	words := strings.Fields(lower)
	for i, word := range words {
		if expanded, ok := c.abbreviations[word]; ok {
			words[i] = expanded
		}
	}

	return c.whitespacePattern.ReplaceAllString(strings.Join(words, " "), " ")
}

func (c *LineClassifier) matchesAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
