package blog

import (
	"regexp"
	"strings"
)

// domains that only ever appear as placeholder output from the model
var placeholderDomains = []string{
	"example.com",
	"example.org",
	"placeholder.com",
	"yoursite.com",
	"website.com",
	"domain.com",
	"site.com",
	"yourblogname.com",
	"ai-generated.com",
	"yourcryptoblog.com",
}

var (
	// bracketed text not forming a markdown link, e.g. [INSERT CHART HERE]
	bracketRe = regexp.MustCompile(`\[[^\]]*\]([^(]|$)`)
	mentionRe = regexp.MustCompile(`\s*@\S+`)

	remarkRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)note:.*`),
		regexp.MustCompile(`(?i)important:.*`),
		regexp.MustCompile(`(?i)remember to.*`),
		regexp.MustCompile(`(?i)please .*`),
		regexp.MustCompile(`(?i)you should .*`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
		regexp.MustCompile(`(?s)/\*.*?\*/`),
	}

	blankRunRe = regexp.MustCompile(`\n{3,}`)

	placeholderLinkRes []*regexp.Regexp
	placeholderURLRes  []*regexp.Regexp
)

func init() {
	for _, domain := range placeholderDomains {
		quoted := regexp.QuoteMeta(domain)
		placeholderLinkRes = append(placeholderLinkRes,
			regexp.MustCompile(`\[[^\]]*\]\(https?://(?:www\.)?`+quoted+`[^)]*\)`))
		placeholderURLRes = append(placeholderURLRes,
			regexp.MustCompile(`https?://(?:www\.)?`+quoted+`\S*`))
	}
}

// CleanArtifacts strips model leftovers from generated markdown: bracketed
// stage directions, stray @handles, placeholder-domain links, editorial
// remarks and excess blank lines. Real markdown links survive.
func CleanArtifacts(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	for _, re := range placeholderLinkRes {
		content = re.ReplaceAllString(content, "")
	}
	for _, re := range placeholderURLRes {
		content = re.ReplaceAllString(content, "")
	}

	content = bracketRe.ReplaceAllString(content, "$1")
	content = mentionRe.ReplaceAllString(content, "")

	for _, re := range remarkRes {
		content = re.ReplaceAllString(content, "")
	}

	content = blankRunRe.ReplaceAllString(content, "\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
