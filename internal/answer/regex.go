package answer

import "regexp"

// MatchQuestion runs the question as a case-insensitive pattern over text.
// A question that is not a valid pattern is matched literally.
func MatchQuestion(question, text string) []string {
	re, err := regexp.Compile("(?i)" + question)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(question))
	}
	var out []string
	for _, m := range re.FindAllString(text, -1) {
		if m != "" {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return []string{NoAnswer}
	}
	return out
}
