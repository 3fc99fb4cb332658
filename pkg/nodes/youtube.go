package nodes

import (
	"context"
	"fmt"
	"regexp"

	"github.com/petrijr/nodeflux/pkg/api"
	"github.com/petrijr/nodeflux/pkg/nodes/llm"
)

var youtubeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([^&\n?#]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/([^&\n?#]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/v/([^&\n?#]+)`),
	regexp.MustCompile(`(?:https?://)?youtu\.be/([^&\n?#]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/shorts/([^&\n?#]+)`),
}

// VideoID extracts the video id from the common YouTube URL shapes.
func VideoID(url string) (string, error) {
	for _, re := range youtubeURLPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", api.Fail(api.FailureInvalidArgument, "not a YouTube URL: %q", url)
}

// YouTubeSummaryNode summarises a YouTube video by handing its URL to the
// model as a file part.
type YouTubeSummaryNode struct {
	LLM llm.Generator
}

var _ api.Node = (*YouTubeSummaryNode)(nil)

func (*YouTubeSummaryNode) Descriptor() api.Descriptor {
	return api.Descriptor{
		ID:          "youtube_summary_gemini",
		Name:        "유튜브 영상 요약 (Gemini)",
		Description: "Google Gemini API를 사용하여 유튜브 영상을 요약합니다",
		Type:        api.NodeTypeProcess,
		Category:    CategoryAI,
	}
}

func (*YouTubeSummaryNode) InputSchema() *api.Schema {
	return &api.Schema{Title: "YoutubeNodeInput", Fields: summaryInputFields("요약할 유튜브 영상 URL")}
}

func (*YouTubeSummaryNode) OutputSchema() *api.Schema {
	return &api.Schema{Title: "YoutubeNodeOutput", Fields: []api.Field{
		{Name: "title", Type: api.FieldString, Description: "영상 제목", Required: true},
		{Name: "url", Type: api.FieldString, Description: "원본 URL", Required: true},
		{Name: "video_id", Type: api.FieldString, Description: "유튜브 영상 ID", Required: true},
		{Name: "summary", Type: api.FieldString, Description: "요약 내용", Required: true},
		{Name: "key_points", Type: api.FieldArray, Items: api.FieldString, Description: "주요 포인트 목록", Required: true},
		{Name: "summary_type", Type: api.FieldString, Description: "요약 타입", Required: true},
		{Name: "word_count", Type: api.FieldInteger, Description: "요약 글자 수", Required: true},
		{Name: "success", Type: api.FieldBoolean, Description: "요약 성공 여부", Required: true},
	}}
}

const youtubePrompt = `
이 유튜브 영상을 분석하고 요약해주세요.

**요청사항:**
1. 영상의 제목과 주요 내용을 파악해주세요.
2. %s
3. 영상에서 언급되는 주요 포인트 3-5개를 별도로 추출해주세요.
4. 객관적이고 정확한 정보만 포함해주세요.

응답은 반드시 다음 JSON 형식으로만 제공해주세요:
{
    "title": "영상 제목",
    "summary": "요약 내용",
    "key_points": ["주요 포인트 1", "주요 포인트 2", "주요 포인트 3"]
}
`

func (n *YouTubeSummaryNode) Execute(ctx context.Context, in api.Input) (api.Output, error) {
	url := in.String("url")
	videoID, err := VideoID(url)
	if err != nil {
		return nil, err
	}
	if n.LLM == nil {
		return nil, errNoModel
	}

	kind := in.String("summary_type")
	answer, err := n.LLM.Generate(ctx,
		llm.Part{FileURI: url},
		llm.Part{Text: fmt.Sprintf(youtubePrompt, summaryInstruction(kind, in.Int("max_length")))},
	)
	if err != nil {
		return nil, err
	}

	var parsed summaryAnswer
	if err := llm.DecodeJSON(answer, &parsed); err != nil {
		return nil, err
	}

	summary := parsed.summary()
	return api.Output{
		"title":        or(parsed.Title, "제목을 가져올 수 없습니다."),
		"url":          url,
		"video_id":     videoID,
		"summary":      summary,
		"key_points":   parsed.keyPoints(),
		"summary_type": kind,
		"word_count":   wordCount(summary),
		"success":      true,
	}, nil
}
