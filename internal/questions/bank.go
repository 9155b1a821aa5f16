package questions

// Question is one entry in the bank. Correct is the index into Options
// and is never sent to clients.
type Question struct {
	Prompt  string
	Options []string
	Correct int
}

// Provider returns the ordered set of questions available for a category
// at a level. An empty result means the level (or category) is exhausted.
type Provider interface {
	QuestionsFor(category string, level int) []Question
	Categories() []string
}

const DefaultCategory = "software_engineer"

// Bank is the static in-memory question provider.
type Bank struct {
	byCategory map[string]map[int][]Question
}

func NewBank() *Bank {
	return &Bank{byCategory: defaultQuestions()}
}

func (b *Bank) QuestionsFor(category string, level int) []Question {
	levels, ok := b.byCategory[category]
	if !ok {
		return nil
	}
	qs := levels[level]
	out := make([]Question, len(qs))
	copy(out, qs)
	return out
}

func (b *Bank) Categories() []string {
	cats := make([]string, 0, len(b.byCategory))
	for c := range b.byCategory {
		cats = append(cats, c)
	}
	return cats
}

// HasCategory reports whether the bank knows the category at all.
func (b *Bank) HasCategory(category string) bool {
	_, ok := b.byCategory[category]
	return ok
}

func defaultQuestions() map[string]map[int][]Question {
	return map[string]map[int][]Question{
		"software_engineer": {
			1: {
				{
					Prompt:  "What does HTML stand for?",
					Options: []string{"Hyper Text Markup Language", "High Tech Modern Language", "Hybrid Text Making Language", "Home Tool Markup Language"},
					Correct: 0,
				},
				{
					Prompt:  "Which data structure uses LIFO?",
					Options: []string{"Queue", "Stack", "Array", "Tree"},
					Correct: 1,
				},
				{
					Prompt:  "What is the time complexity of binary search?",
					Options: []string{"O(n)", "O(n²)", "O(log n)", "O(1)"},
					Correct: 2,
				},
				{
					Prompt:  "What is a variable?",
					Options: []string{"A container for data", "A programming language", "A computer", "A website"},
					Correct: 0,
				},
			},
			2: {
				{
					Prompt:  "What is a closure in programming?",
					Options: []string{"A function with access to its outer scope", "A closed program", "A type of loop", "A database connection"},
					Correct: 0,
				},
				{
					Prompt:  "What is the difference between == and === in JavaScript?",
					Options: []string{"No difference", "=== checks type and value", "== is faster", "=== is deprecated"},
					Correct: 1,
				},
				{
					Prompt:  "What is a RESTful API?",
					Options: []string{"A sleeping API", "An architectural style for APIs", "A testing framework", "A database"},
					Correct: 1,
				},
				{
					Prompt:  "What is dependency injection?",
					Options: []string{"A design pattern for handling dependencies", "A type of medication", "A database query", "A testing framework"},
					Correct: 0,
				},
			},
		},
		"data_scientist": {
			1: {
				{
					Prompt:  "What is pandas in Python?",
					Options: []string{"A data manipulation library", "An animal", "A game", "A database"},
					Correct: 0,
				},
				{
					Prompt:  "What does SQL stand for?",
					Options: []string{"Some Query Language", "Structured Query Language", "Simple Query Language", "System Query Language"},
					Correct: 1,
				},
				{
					Prompt:  "What is a dataset?",
					Options: []string{"A collection of data", "A computer program", "A type of chart", "A database server"},
					Correct: 0,
				},
				{
					Prompt:  "What is correlation?",
					Options: []string{"Causation", "Statistical relationship between variables", "A programming language", "A type of graph"},
					Correct: 1,
				},
			},
		},
	}
}
