package driven

// Tokenizer measures text in model tokens for chunk budgeting.
type Tokenizer interface {
	// Count returns the number of tokens in text.
	Count(text string) int

	// Name identifies the tokenizer, e.g. "o200k_base".
	Name() string
}
