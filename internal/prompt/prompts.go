// Package prompt builds the natural-language prompts sent to the model API
// for lead qualification and outreach drafting.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"sdr-service/internal/model"
)

// Criteria are the six fixed qualification criteria, in prompt order
var Criteria = []string{
	"company_size",
	"industry_fit",
	"funding",
	"decision_maker",
	"tech_stack",
	"revenue",
}

// criterionHints explain to the model how each criterion should be judged
var criterionHints = map[string]string{
	"company_size":   "Company Size (weight: %d): Evaluate based on employee count - larger companies may have more budget and decision-making complexity",
	"industry_fit":   "Industry Fit (weight: %d): Assess alignment with target industries - tech, SaaS, finance typically score higher",
	"funding":        "Recent Funding (weight: %d): Consider recent funding rounds - well-funded companies have budget for new solutions",
	"decision_maker": "Decision Maker (weight: %d): Evaluate title/role - C-level, VP, Director roles indicate decision-making authority",
	"tech_stack":     "Tech Stack (weight: %d): Assess technology alignment - modern tech stacks indicate innovation readiness",
	"revenue":        "Revenue (weight: %d): Consider annual revenue - higher revenue suggests budget availability",
}

// DefaultWeights returns the server-side default scoring weights
func DefaultWeights() map[string]int {
	return map[string]int{
		"company_size":   1,
		"industry_fit":   2,
		"funding":        1,
		"decision_maker": 2,
		"tech_stack":     1,
		"revenue":        1,
	}
}

// NormalizeWeights fills in default weights for omitted criteria and rejects
// unknown criterion names and non-positive weights.
func NormalizeWeights(weights map[string]int) (map[string]int, error) {
	merged := DefaultWeights()
	for name, weight := range weights {
		if _, known := merged[name]; !known {
			return nil, fmt.Errorf("unknown scoring criterion: %s", name)
		}
		if weight <= 0 {
			return nil, fmt.Errorf("scoring weight for %s must be positive, got %d", name, weight)
		}
		merged[name] = weight
	}
	return merged, nil
}

// leadJSON renders the lead's fields and metadata for prompt embedding
func leadJSON(lead *model.Lead) string {
	data := map[string]interface{}{
		"company":  lead.Company,
		"name":     lead.Name,
		"title":    lead.Title,
		"email":    lead.Email,
		"website":  lead.Website,
		"metadata": lead.CompanyMetadata,
	}
	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(out)
}

// weightsJSON renders weights with stable key order
func weightsJSON(weights map[string]int) string {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %d", k, weights[k])
	}
	b.WriteString("}")
	return b.String()
}

// Qualification builds the lead-scoring prompt for the given lead and
// normalized weights.
func Qualification(lead *model.Lead, weights map[string]int) string {
	var criteria []string
	for _, name := range Criteria {
		criteria = append(criteria, "- "+fmt.Sprintf(criterionHints[name], weights[name]))
	}

	return fmt.Sprintf(`You are a sales qualification assistant. Evaluate this lead using the following weighted criteria:

%s

Scoring Weights: %s

Lead Information:
%s

Instructions:
1. Score each criterion from 0-10 based on the lead's information
2. Apply the weights to calculate weighted scores
3. Sum weighted scores and normalize to 0-100 scale
4. Provide a clear justification for the overall score
5. Include detailed breakdown showing individual criterion scores

Return strictly valid JSON:
{
  "score": <int 0-100>,
  "justification": "<string explaining the overall score>",
  "breakdown": {
    "company_size": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"},
    "industry_fit": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"},
    "funding": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"},
    "decision_maker": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"},
    "tech_stack": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"},
    "revenue": {"score": <0-10>, "weighted_score": <float>, "reason": "<string>"}
  }
}`, strings.Join(criteria, "\n"), weightsJSON(weights), leadJSON(lead))
}

// Outreach builds the cold-email drafting prompt for the given lead
func Outreach(lead *model.Lead, tone, goal string) string {
	return fmt.Sprintf(`You are an SDR writing a cold outreach email tailored to the lead below.
Use the lead/company metadata to personalize subject and first paragraph.
Keep it short (subject + 3 short paragraphs), end with a clear CTA to %s.
Output JSON:
{
  "subject": "<subject line>",
  "body": "<email body in plain text>",
  "tags": ["<tag1>", "<tag2>"]
}

Lead:
%s

Tone: %s`, goal, leadJSON(lead), tone)
}
