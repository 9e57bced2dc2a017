// Package generate turns resolved source text into newsletter article drafts
// through a templated prompt against a chat model.
package generate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Article is one generated draft.
type Article struct {
	Title string
	Body  string
}

// ErrNoArticles indicates the model replied but nothing parseable as an
// article came back. The raw reply is preserved in the error for debugging.
var ErrNoArticles = errors.New("model output contained no articles")

const (
	// Truncation caps keep the prompt inside the model's context window.
	maxSourceChars = 15000
	maxStyleChars  = 6000

	minSectionChars = 80
	minBodyChars    = 100
)

const systemPromptTemplate = `You are a ghostwriter for a newsletter.

ABOUT THE AUTHOR AND NEWSLETTER:
%s

WRITING STYLE — Study these previous articles carefully and match the tone, rhythm, sentence length, and voice EXACTLY:
%s

YOUR TASK:
Read the provided source text and write 2-3 complete article drafts inspired by its ideas. Each article should be publishable as-is.

CRITICAL RULES:
1. Write in FIRST PERSON — as the author.
2. Match the author's conversational, reflective, story-driven style. NOT corporate. NOT listicle.
3. Each article MUST have a UNIQUE, COMPELLING HEADLINE.
4. Articles should be 400-700 words each.
5. End each article with a thought-provoking takeaway.

FORMAT — Use this EXACT structure (separate articles with ---):

**<Compelling Headline>**

<Full article body. Multiple paragraphs.>

---

**<Next Compelling Headline>**

<Full article body...>
`

const userPromptTemplate = `Write 2-3 article drafts inspired by this source.

SOURCE TITLE: %s

SOURCE TEXT:
%s
`

// Generator calls the model and parses its reply into drafts.
type Generator struct {
	Client Client
	Model  string
	// Voice describes the author and publication for the system prompt.
	Voice string
	// StyleReference is prior writing the model should imitate.
	StyleReference string
	Temperature    float32
}

// Generate produces article drafts for one source. It returns ErrNoArticles
// (wrapped) when the model output cannot be parsed; partial output is never
// returned.
func (g *Generator) Generate(ctx context.Context, sourceTitle, sourceText string) ([]Article, error) {
	if g.Client == nil || strings.TrimSpace(g.Model) == "" {
		return nil, errors.New("generator not configured")
	}
	system := fmt.Sprintf(systemPromptTemplate, g.Voice, truncate(g.StyleReference, maxStyleChars))
	user := fmt.Sprintf(userPromptTemplate, sourceTitle, truncate(sourceText, maxSourceChars))

	temp := g.Temperature
	if temp == 0 {
		temp = 0.7
	}
	resp, err := g.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temp,
		N:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoArticles
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	articles := ParseArticles(content)
	if len(articles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoArticles, truncate(content, 200))
	}
	return articles, nil
}

var (
	separatorPattern = regexp.MustCompile(`\n-{3,}\n`)
	boldTitlePattern = regexp.MustCompile(`(?m)^\*\*(.+?)\*\*`)
	hashTitlePattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// ParseArticles splits the model's reply on --- separators and pulls a
// **bold** or "# heading" title out of each section. Sections without a
// recognizable title or with a trivial body are dropped.
func ParseArticles(content string) []Article {
	var articles []Article
	for _, section := range separatorPattern.Split(content, -1) {
		section = strings.TrimSpace(section)
		if len(section) < minSectionChars {
			continue
		}
		m := boldTitlePattern.FindStringSubmatchIndex(section)
		if m == nil {
			m = hashTitlePattern.FindStringSubmatchIndex(section)
		}
		if m == nil {
			continue
		}
		title := strings.TrimSpace(section[m[2]:m[3]])
		body := strings.TrimSpace(section[m[1]:])
		if len(body) < minBodyChars {
			continue
		}
		articles = append(articles, Article{Title: title, Body: body})
	}
	return articles
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
