package threat

import "fmt"

const analysisPromptTemplate = `Analyze this travel safety report from %s:

"%s"

Provide JSON with: category, riskScore (0-100), confidence (0-100), summary, threatType, severity, relevantFor, actionableInsights

Rules:
- category is one of: street-smart, digital-risks, local-intel
- severity is one of: low, medium, high, critical
- relevantFor is an array of {"travelStyle", "experience"} objects
- actionableInsights is an array of short strings
- Respond with ONLY the JSON object.`

// AnalysisPrompt builds the user message asking a chat model to assess report.
func AnalysisPrompt(report, location string) string {
	return fmt.Sprintf(analysisPromptTemplate, location, report)
}
