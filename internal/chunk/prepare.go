package chunk

import (
	"regexp"
	"strings"
)

var (
	fillerWords   = regexp.MustCompile(`(?i)\b(um|uh|ah|er|hmm)\b`)
	speechBreaks  = regexp.MustCompile(`(?i)(\w+)\s+(and|so|but|then|now|okay|well)\s+`)
	anyWhitespace = regexp.MustCompile(`\s+`)

	pageNumberLine = regexp.MustCompile(`\n\s*\d+\s*\n`)
	headingLine    = regexp.MustCompile(`(?i)\n\s*(Page|Chapter|Section)\s+\d+[^\n]*\n`)
	hyphenBreak    = regexp.MustCompile(`-\n\s*`)
	spaceRuns      = regexp.MustCompile(`[ \t]+`)
)

// prepareTranscript cleans speech-to-text output: drops filler tokens,
// collapses stutter repeats, and inserts sentence breaks before discourse
// markers so run-on transcripts still chunk on sentence boundaries.
func prepareTranscript(text string) string {
	text = fillerWords.ReplaceAllString(text, "")
	text = collapseRepeats(text)
	text = speechBreaks.ReplaceAllString(text, "$1. $2 ")
	text = anyWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// preparePDFText strips page furniture and repairs line-wrap damage while
// keeping paragraph breaks intact.
func preparePDFText(text string) string {
	text = pageNumberLine.ReplaceAllString(text, "\n")
	text = headingLine.ReplaceAllString(text, "\n")
	text = hyphenBreak.ReplaceAllString(text, "")
	text = paragraphSep.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// collapseRepeats removes the second of two identical consecutive words, a
// common transcription stutter ("the the", "I I"). Comparison ignores case.
func collapseRepeats(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return text
	}
	out := fields[:1]
	for _, f := range fields[1:] {
		if strings.EqualFold(f, out[len(out)-1]) {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
