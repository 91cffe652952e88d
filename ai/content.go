package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"blogr/app"
	"blogr/news"
)

// cap on source text passed into the writing prompt
const maxCombinedContent = 4000

var metadataBlockRe = regexp.MustCompile(`(?s)title:\s*.*\n.*?tags:\s*\[.*\]`)

// ContentInput carries everything the writing agent needs.
type ContentInput struct {
	Data      *news.Consolidated
	Research  *Research
	ImagePath string
	// Prices maps ticker to current USD price, injected as factual context.
	Prices map[string]string
}

var contentPrompt = template.Must(template.New("content").Parse(`You are a specialized Crypto Blog Writing Agent that transforms SEO research and aggregated article data into comprehensive, publication-ready, SEO-optimized blog posts. You excel at creating in-depth, authoritative content by synthesizing information from multiple sources, while maintaining reader engagement and SEO best practices specifically for the cryptocurrency and blockchain industry.

## Input Requirements:
1.  ` + "`aggregated_source_data`" + `: {{.SourceData}}
2.  ` + "`research_output`" + `: {{.ResearchData}}
3.  ` + "`transformed_image_path_info`" + `: '{{.ImagePath}}' (This is the file path to the main featured image. Do NOT embed this image again within the content body. It will be handled separately in the HTML template.)
{{- if .Prices}}

CURRENT MARKET PRICES (use these exact figures when citing spot prices):
{{- range $sym, $price := .Prices}}
{{$sym}}: ${{$price}}
{{- end}}
{{- end}}

## Content Specifications:
-   **Word Count:** Aim for 2500-3000 words. Synthesize and expand thoughtfully on the aggregated source content, adding depth, specific details, and related information from your training data relevant to crypto. Do NOT simply copy-paste content from the input. Rewrite and integrate.
-   **Heading Structure:** Use the provided outline from the research output. Ensure a minimum of 25 headings (` + "`##` and `###`" + ` only, except for the main H1 title), covering various aspects of the trending crypto topic.
-   **Paragraph Length:** Each paragraph should contain at least 5 sentences for comprehensive coverage, unless it's a short intro/outro or a bullet point explanation.
-   **Writing Style:** Professional yet conversational, engaging, and human-like for a crypto audience. Avoid jargon where simpler terms suffice. Do NOT mention that you are an AI or generated the content. Ensure a clear, authoritative, and trustworthy tone that positions the content as highly credible.
-   **Target Audience:** Broad audience interested in cryptocurrency, blockchain, DeFi, NFTs, and Web3.
-   **Keyword Integration:** Naturally weave primary keywords ({{.PrimaryKeywords}}) and secondary keywords ({{.SecondaryKeywords}}) throughout the text without keyword stuffing. Integrate them into headings, subheadings, and body paragraphs.
-   **Data & Examples:** Incorporate relevant data, statistics, and real-world examples. Where exact market prices are needed, use the CURRENT MARKET PRICES above. Ensure details support the main points derived from the aggregated content.
-   **Linking:** Generate relevant external links where appropriate, using actual, plausible URLs from reputable crypto domains related to the topic (e.g., 'cointelegraph.com/news', 'decrypt.co/defi', 'theblockcrypto.com/analysis', 'ethereum.org/roadmap', 'bitcoin.org/learn', 'opensea.io/blog'). Embed them naturally within the surrounding sentences. Do NOT use the @ symbol or any other prefix before links or raw URLs. Do NOT include example.com or similar placeholder domains.
-   **Image Inclusion:** Do NOT include any markdown image syntax in the content body. The single featured image is handled separately by the HTML template.

## Output Structure:
Generate the complete blog post in markdown format. It must start with a metadata block followed by the blog content.

**Metadata Block (exact key-value pairs, no --- delimiters, newline separated):**
title: {{.Title}}
description: {{.Description}}
date: {{.Date}}
categories: [{{.Categories}}]
tags: [{{.Tags}}]
featuredImage: {{.FeaturedImage}}

**Blog Content (following the metadata block):**
1.  **Main Title (H1):** Start with an H1 heading based on the suggested blog title. Example: ` + "`# {{.Title}}`" + `.
2.  **Introduction (2-3 paragraphs):** Hook the reader. Clearly state the problem or topic and your blog's value proposition.
3.  **Main Sections:** Follow the blog outline from the research output. Expand each section and sub-section. Ensure each section provides substantial information.
4.  **FAQ Section:** Include 5-7 frequently asked questions with detailed, comprehensive answers, related to the topic and incorporating keywords.
5.  **Conclusion:** Summarize key takeaways, provide a forward-looking statement, and a clear call-to-action.
Do NOT include any introductory or concluding remarks outside the blog content itself. Do NOT include any bracketed instructions, placeholders, or comments intended for me within the output markdown. The entire output must be polished, final content, ready for publication.`))

// metadataValues derives the metadata block fields for a post.
func metadataValues(in *ContentInput) (title, description, date, categories, tags, featured string) {
	title = in.Research.Title
	if title == "" {
		title = in.Data.Topic
	}

	description = in.Data.Description
	if description == "" {
		description = fmt.Sprintf("A comprehensive and insightful look at the latest news and trends in %s related to %s.", in.Data.Category, title)
	}
	description = strings.NewReplacer(`"`, "", "\n", " ", "\r", " ").Replace(description)
	description = strings.TrimSpace(description)
	if len(description) > 155 {
		description = truncate(description, 155)
	}

	date = time.Now().Format("2006-01-02")

	primary := in.Research.PrimaryKeywords
	cats := []string{in.Data.Category}
	if len(primary) > 2 {
		cats = append(cats, primary[:2]...)
	} else {
		cats = append(cats, primary...)
	}
	categories = strings.Join(cats, ", ")

	secondary := in.Research.AllSecondary()
	if len(secondary) > 5 {
		secondary = secondary[:5]
	}
	tags = strings.Join(append(append([]string{}, primary...), secondary...), ", ")

	featured = in.ImagePath
	if featured == "" {
		featured = "None"
	}
	return
}

// WriteContent runs the content agent and returns the post markdown,
// guaranteed to start with a metadata block.
func WriteContent(ctx context.Context, in *ContentInput) (string, error) {
	data := *in.Data
	if len(data.Content) > maxCombinedContent {
		data.Content = truncate(data.Content, maxCombinedContent) + "\n\n[...Content truncated for prompt brevity...]"
	}

	sourceJSON, err := json.MarshalIndent(&data, "", "  ")
	if err != nil {
		return "", err
	}
	researchJSON, err := json.MarshalIndent(in.Research, "", "  ")
	if err != nil {
		return "", err
	}

	title, description, date, categories, tags, featured := metadataValues(in)

	var prompt strings.Builder
	if err := contentPrompt.Execute(&prompt, map[string]interface{}{
		"SourceData":        string(sourceJSON),
		"ResearchData":      string(researchJSON),
		"ImagePath":         featured,
		"Prices":            in.Prices,
		"PrimaryKeywords":   strings.Join(in.Research.PrimaryKeywords, ", "),
		"SecondaryKeywords": strings.Join(in.Research.AllSecondary(), ", "),
		"Title":             title,
		"Description":       description,
		"Date":              date,
		"Categories":        categories,
		"Tags":              tags,
		"FeaturedImage":     featured,
	}); err != nil {
		return "", err
	}

	app.Log("ai", "Generating full blog content for %q", truncateLog(title, 70))

	content, err := generate(ctx, prompt.String())
	if err != nil {
		return "", err
	}

	if !metadataBlockRe.MatchString(content) {
		app.Log("ai", "Generated content is missing the metadata block, prepending one")
		content = fmt.Sprintf("title: %s\ndescription: %s\ndate: %s\ncategories: [%s]\ntags: [%s]\nfeaturedImage: %s\n\n%s",
			title, description, date, categories, tags, featured, content)
	}

	return content, nil
}
