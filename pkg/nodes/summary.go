package nodes

import (
	"fmt"
	"unicode/utf8"

	"github.com/petrijr/nodeflux/pkg/api"
)

var summaryTypes = []string{"general", "detailed", "bullet"}

func summaryInputFields(urlDescription string) []api.Field {
	return []api.Field{
		{Name: "url", Type: api.FieldString, Description: urlDescription, Required: true, MinLength: api.Ptr(1)},
		{Name: "summary_type", Type: api.FieldString, Description: "요약 타입 (general, detailed, bullet)", Enum: summaryTypes, Default: "general"},
		{Name: "max_length", Type: api.FieldInteger, Description: "최대 요약 길이 (글자 수)", Minimum: api.Ptr(1.0), Default: 500},
	}
}

func summaryInstruction(kind string, maxLength int) string {
	switch kind {
	case "detailed":
		return fmt.Sprintf("상세한 요약을 %d자 내외로 작성해주세요.", maxLength)
	case "bullet":
		return fmt.Sprintf("주요 내용을 불릿 포인트 형태로 %d자 내외로 작성해주세요.", maxLength)
	}
	return fmt.Sprintf("핵심 내용을 간결하게 %d자 내외로 요약해주세요.", maxLength)
}

// summaryAnswer is the JSON shape both summary prompts ask for.
type summaryAnswer struct {
	Title     *string  `json:"title"`
	Summary   *string  `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

func (a summaryAnswer) summary() string {
	return or(a.Summary, "요약을 생성할 수 없습니다.")
}

func (a summaryAnswer) keyPoints() []string {
	if a.KeyPoints == nil {
		return []string{}
	}
	return a.KeyPoints
}

func wordCount(s string) int { return utf8.RuneCountInString(s) }
