package pipeline

// ApproxTokens estimates the token count of a text as length/4, minimum 1.
// Good enough for budgeting chunk sizes against an embedding model's limit.
func ApproxTokens(text string) int {
	tokens := len(text) / 4
	if tokens < 1 {
		return 1
	}
	return tokens
}
