package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"blogr/app"
)

// Research is the structured output of the research agent.
type Research struct {
	Title             string              `json:"suggested_blog_title"`
	PrimaryKeywords   []string            `json:"primary_keywords"`
	SecondaryKeywords map[string][]string `json:"secondary_keywords"`
	CompetitorInsight string              `json:"competitor_insights"`
	Outline           string              `json:"blog_outline"`
}

// AllSecondary flattens the secondary keyword clusters.
func (r *Research) AllSecondary() []string {
	var out []string
	for _, kws := range r.SecondaryKeywords {
		out = append(out, kws...)
	}
	return out
}

var researchPrompt = template.Must(template.New("research").Parse(`You are an expert SEO Keyword Research Agent specializing in crypto market analysis and content strategy. Your task is to perform comprehensive SEO keyword research and outline generation for the trending crypto topic: '{{.Topic}}'.

Analyze content from top crypto competitors (e.g., {{.Competitors}}) to identify relevant SEO keywords, content gaps, and structural insights specifically tailored for the cryptocurrency, blockchain, DeFi, NFT, and Web3 space.

**Crucial:** Based on the topic, original source information, and keyword research, generate a **unique, catchy, and SEO-optimized blog post title (H1)** that will attract crypto enthusiasts and rank well. This title should be distinct from the original source titles and reflect a consolidated, in-depth perspective on the crypto topic.

## Process Flow:
1.  **Initial Keyword Discovery:** Identify primary (high search volume, high relevance), secondary (long-tail, specific), and diverse keyword clusters related to the target crypto topic. Think about various user intents (informational, commercial, navigational) within the crypto domain.
2.  **Competitive Analysis:** Provide 2-3 key insights into competitor strategies and content gaps in relation to the crypto topic.
3.  **Keyword Evaluation:** Assess search volume and competition levels for identified keywords. Prioritize high-value, relevant crypto keywords for SEO optimization. Identify important related entities and concepts within the crypto sphere.
4.  **Outline Creation:** Generate a detailed, hierarchical blog post outline (using markdown headings ` + "`##`, `###`" + `) that strategically incorporates the high-value keywords. Ensure the outline flows logically and covers comprehensive aspects of the crypto topic. Suggest potential sub-sections for FAQs, case studies, or data points where appropriate.

## Output Specifications:
Generate a JSON object (as a string) with the following structure. Ensure the ` + "`blog_outline`" + ` is a valid markdown string.
` + "```json" + `
{
  "suggested_blog_title": "Your Unique and Catchy Crypto Blog Post Title Here",
  "primary_keywords": ["crypto keyword1", "crypto keyword2", "crypto keyword3"],
  "secondary_keywords": {"sub_topic1_crypto": ["long-tail A", "long-tail B"], "sub_topic2_crypto": ["specific C", "specific D"]},
  "competitor_insights": "Summary of competitor strategies and content gaps in the crypto niche.",
  "blog_outline": "## Introduction to Crypto Topic\n\n### The Rise of [Specific Crypto Niche]\n\n## Main Section 1: [Crypto Section Title]\n\n### Sub-section 1.1: [Specific Crypto Aspect]\n\n## Conclusion\n"
}
` + "```" + `
**Constraints:** Focus on commercially relevant crypto terms. Exclude branded competitor terms. The entire output must be a single, valid JSON string. The ` + "`blog_outline`" + ` must contain at least 8 distinct markdown headings (H2 or H3) and be structured for user engagement and SEO. The ` + "`suggested_blog_title`" + ` should be concise, impactful, and ideally under 70 characters. Do NOT include any introductory or concluding remarks outside the JSON block.`))

// PerformResearch runs the research agent for a topic.
func PerformResearch(ctx context.Context, topic string, competitors []string) (*Research, error) {
	if len(competitors) > 5 {
		competitors = competitors[:5]
	}

	var prompt strings.Builder
	if err := researchPrompt.Execute(&prompt, map[string]string{
		"Topic":       topic,
		"Competitors": strings.Join(competitors, ", "),
	}); err != nil {
		return nil, err
	}

	app.Log("ai", "Generating research for %q", truncateLog(topic, 70))

	text, err := generate(ctx, prompt.String())
	if err != nil {
		return nil, err
	}

	research := new(Research)
	if err := json.Unmarshal([]byte(stripFence(text)), research); err != nil {
		return nil, fmt.Errorf("failed to parse research output: %w", err)
	}

	app.Log("ai", "Research successful, suggested title: %q", research.Title)
	return research, nil
}
