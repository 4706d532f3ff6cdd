package curation

// EstimateTokens approximates the token count of text at 4 characters per
// token. Deliberately rough — the budget checks only need a stable order of
// magnitude, and the estimator is swappable for a real tokenizer.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// EstimateMessages sums the token estimate over a message slice.
func EstimateMessages(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += EstimateTokens(m.Text)
	}
	return total
}
