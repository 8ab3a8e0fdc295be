package rubric

const rubricPrompt = `
You are a productivity evaluator. Given a student's Jupyter notebook, score it on the following:
1. Completeness (0-10): Are required tasks/code cells implemented?
2. Code Quality (0-10): Is the code clean, modular, and readable?
3. Documentation (0-10): Are markdown explanations present and clear?
4. Insightfulness (0-10): Are outputs meaningful (e.g., graphs, conclusions)?

Respond only in JSON format like:
{
  "Completeness": 8,
  "Code Quality": 7,
  "Documentation": 9,
  "Insightfulness": 8
}
`

// Reply keys for each criterion.
const (
	keyCompleteness   = "Completeness"
	keyCodeQuality    = "Code Quality"
	keyDocumentation  = "Documentation"
	keyInsightfulness = "Insightfulness"
)

// BuildPrompt appends the notebook text to the rubric.
func BuildPrompt(content string) string {
	return rubricPrompt + "\n\nNotebook Content:\n" + content + "\n"
}
