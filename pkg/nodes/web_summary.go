package nodes

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/petrijr/nodeflux/pkg/api"
	"github.com/petrijr/nodeflux/pkg/nodes/llm"
	"github.com/petrijr/nodeflux/pkg/nodes/scrape"
)

// MinPageContent is the shortest extracted page text worth summarising.
const MinPageContent = 50

// WebSummaryNode fetches a web page and summarises it with the language
// model.
type WebSummaryNode struct {
	LLM     llm.Generator
	Fetcher scrape.Fetcher
}

var _ api.Node = (*WebSummaryNode)(nil)

func (*WebSummaryNode) Descriptor() api.Descriptor {
	return api.Descriptor{
		ID:          "web_summary_gemini",
		Name:        "웹페이지 요약 (Gemini)",
		Description: "Google Gemini API를 사용하여 웹페이지 내용을 요약합니다",
		Type:        api.NodeTypeProcess,
		Category:    CategoryAI,
	}
}

func (*WebSummaryNode) InputSchema() *api.Schema {
	return &api.Schema{Title: "GeminiSummaryNodeInput", Fields: summaryInputFields("요약할 웹페이지 URL")}
}

func (*WebSummaryNode) OutputSchema() *api.Schema {
	return &api.Schema{Title: "GeminiSummaryNodeOutput", Fields: []api.Field{
		{Name: "title", Type: api.FieldString, Description: "웹페이지 제목", Required: true},
		{Name: "url", Type: api.FieldString, Description: "원본 URL", Required: true},
		{Name: "summary", Type: api.FieldString, Description: "요약 내용", Required: true},
		{Name: "key_points", Type: api.FieldArray, Items: api.FieldString, Description: "주요 포인트 목록", Required: true},
		{Name: "summary_type", Type: api.FieldString, Description: "요약 타입", Required: true},
		{Name: "word_count", Type: api.FieldInteger, Description: "요약 글자 수", Required: true},
		{Name: "success", Type: api.FieldBoolean, Description: "요약 성공 여부", Required: true},
	}}
}

const webSummaryPrompt = `
다음 웹페이지 내용을 분석하고 요약해주세요.

**웹페이지 제목:** %s
**URL:** %s

**내용:**
` + "```" + `
%s
` + "```" + `

**요청사항:**
1. %s
2. 주요 포인트 3-5개를 별도로 추출해주세요.
3. 객관적이고 정확한 정보만 포함해주세요.

응답은 반드시 다음 JSON 형식으로만 제공해주세요:
{
    "summary": "요약 내용",
    "key_points": ["주요 포인트 1", "주요 포인트 2", "주요 포인트 3"]
}
`

func (n *WebSummaryNode) Execute(ctx context.Context, in api.Input) (api.Output, error) {
	if n.LLM == nil {
		return nil, errNoModel
	}
	if n.Fetcher == nil {
		return nil, api.Fail(api.FailureUnavailable, "no page fetcher configured")
	}

	url := in.String("url")
	page, err := n.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(strings.TrimSpace(page.Content)) < MinPageContent {
		return nil, api.Fail(api.FailureInvalidArgument, "not enough readable content on %s", url)
	}

	kind := in.String("summary_type")
	prompt := fmt.Sprintf(webSummaryPrompt, page.Title, url, page.Content, summaryInstruction(kind, in.Int("max_length")))
	answer, err := n.LLM.Generate(ctx, llm.Part{Text: prompt})
	if err != nil {
		return nil, err
	}

	var parsed summaryAnswer
	if err := llm.DecodeJSON(answer, &parsed); err != nil {
		return nil, err
	}

	summary := parsed.summary()
	return api.Output{
		"title":        page.Title,
		"url":          url,
		"summary":      summary,
		"key_points":   parsed.keyPoints(),
		"summary_type": kind,
		"word_count":   wordCount(summary),
		"success":      true,
	}, nil
}
