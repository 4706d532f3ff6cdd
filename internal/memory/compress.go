package memory

import "strings"

// Strategy shrinks chunk content while producing a retrievable summary.
// The contract is "text in, shorter text + summary out"; the default below is
// extractive and deterministic, but a deployment may substitute anything that
// honors the shape.
type Strategy interface {
	Compress(content string) (compressed, summary string)
}

// HeadTailConfig tunes the default compression strategy.
type HeadTailConfig struct {
	KeepHead         int // characters retained from the start
	KeepTail         int // characters retained from the end, when content is long enough
	TailCutoff       int // content longer than this keeps both head and tail
	SummarySentences int // leading sentences kept as the summary
}

// DefaultHeadTailConfig returns the stock cutoffs.
func DefaultHeadTailConfig() HeadTailConfig {
	return HeadTailConfig{
		KeepHead:         200,
		KeepTail:         200,
		TailCutoff:       400,
		SummarySentences: 3,
	}
}

// HeadTail is the default compression strategy: keep the opening and, for long
// content, the ending. Openings state intent and endings state conclusions, so
// mid-content is the safest to elide.
type HeadTail struct {
	cfg HeadTailConfig
}

// NewHeadTail creates the default strategy with the given cutoffs.
func NewHeadTail(cfg HeadTailConfig) HeadTail {
	if cfg.KeepHead <= 0 {
		cfg = DefaultHeadTailConfig()
	}
	return HeadTail{cfg: cfg}
}

// Compress returns the elided content and a summary made of the original's
// leading sentences.
func (h HeadTail) Compress(content string) (string, string) {
	summary := firstSentences(content, h.cfg.SummarySentences)

	var compressed string
	if len(content) > h.cfg.TailCutoff {
		compressed = content[:h.cfg.KeepHead] + "\n... [compressed] ...\n" + content[len(content)-h.cfg.KeepTail:]
	} else {
		head := content
		if len(head) > h.cfg.KeepHead {
			head = head[:h.cfg.KeepHead]
		}
		compressed = head + "... [compressed]"
	}
	return compressed, summary
}

// firstSentences returns the first n sentences of s, or s unchanged if it has
// n or fewer. Sentence boundaries are periods; good enough for an extractive
// summarizer that makes no semantic claims.
func firstSentences(s string, n int) string {
	parts := strings.Split(s, ".")
	if len(parts) <= n {
		return s
	}
	return strings.Join(parts[:n], ".") + "."
}

// sentenceCount returns the number of period-delimited segments in s,
// mirroring the split used by firstSentences.
func sentenceCount(s string) int {
	return len(strings.Split(s, "."))
}
