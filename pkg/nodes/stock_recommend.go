package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/petrijr/nodeflux/pkg/api"
	"github.com/petrijr/nodeflux/pkg/nodes/llm"
)

// StockRecommendNode asks the language model for one Korean stock pick
// based on up to three pieces of research material.
type StockRecommendNode struct {
	LLM llm.Generator
}

var _ api.Node = (*StockRecommendNode)(nil)

func (*StockRecommendNode) Descriptor() api.Descriptor {
	return api.Descriptor{
		ID:          "stock_recommend_gemini",
		Name:        "주식 추천 (Gemini)",
		Description: "Google Gemini API를 사용하여 한국 주식을 분석하고 추천합니다",
		Type:        api.NodeTypeProcess,
		Category:    CategoryAI,
	}
}

func (*StockRecommendNode) InputSchema() *api.Schema {
	return &api.Schema{Title: "GeminiNodeInput", Fields: []api.Field{
		{Name: "data1", Type: api.FieldString, Description: "첫 번째 분석 자료", Required: true},
		{Name: "data2", Type: api.FieldString, Description: "두 번째 분석 자료", Default: ""},
		{Name: "data3", Type: api.FieldString, Description: "세 번째 분석 자료", Default: ""},
	}}
}

func (*StockRecommendNode) OutputSchema() *api.Schema {
	return &api.Schema{Title: "GeminiNodeOutput", Fields: []api.Field{
		{Name: "stock_name", Type: api.FieldString, Description: "추천 주식 이름", Required: true},
		{Name: "stock_code", Type: api.FieldString, Description: "주식 코드", Required: true},
		{Name: "reason", Type: api.FieldString, Description: "추천 이유", Required: true},
		{Name: "current_price_krw", Type: api.FieldNumber, Description: "현재가 (KRW)", Required: true},
		{Name: "target_price_krw", Type: api.FieldNumber, Description: "목표가 (KRW)", Required: true},
		{Name: "stop_loss_krw", Type: api.FieldNumber, Description: "손절가 (KRW)", Required: true},
		{Name: "investment_period", Type: api.FieldString, Description: "권장 투자 기간", Required: true},
		{Name: "risk_level", Type: api.FieldString, Description: "투자 위험도", Required: true},
		{Name: "additional_info", Type: api.FieldString, Description: "기타 정보 및 주의사항", Required: true},
		{Name: "success", Type: api.FieldBoolean, Description: "추천 성공 여부", Required: true},
	}}
}

const stockPrompt = `
당신은 한국 주식 시장 전문 애널리스트입니다.
아래 정보를 참고하고, 현재 이와 관련된 경제 정보등을 찾아본 뒤 주식을 추천해주세요.

**분석 자료 1:**
` + "```" + `
%s
` + "```" + `
**분석 자료 2:**
` + "```" + `
%s
` + "```" + `
**분석 자료 3:**
` + "```" + `
%s
` + "```" + `

**요구사항:**
1. 한국 주식 시장(KOSPI/KOSDAQ) 종목만 추천
2. 현실적인 가격 설정
3. 구체적이고 논리적인 추천 이유 제시

응답은 반드시 다음 JSON 형식으로만 제공해주세요:
{
    "stock_name": "회사명",
    "stock_code": "종목코드",
    "reason": "구체적인 추천 이유 (최소 100자)",
    "current_price_krw": 현재가격,
    "target_price_krw": 목표가격,
    "stop_loss_krw": 손절가격,
    "investment_period": "단기/중기/장기",
    "risk_level": "낮음/중간/높음",
    "additional_info": "주의사항 및 추가 정보"
}
`

type stockPick struct {
	StockName        *string     `json:"stock_name"`
	StockCode        *string     `json:"stock_code"`
	Reason           *string     `json:"reason"`
	CurrentPrice     json.Number `json:"current_price_krw"`
	TargetPrice      json.Number `json:"target_price_krw"`
	StopLoss         json.Number `json:"stop_loss_krw"`
	InvestmentPeriod *string     `json:"investment_period"`
	RiskLevel        *string     `json:"risk_level"`
	AdditionalInfo   *string     `json:"additional_info"`
}

func (n *StockRecommendNode) Execute(ctx context.Context, in api.Input) (api.Output, error) {
	if n.LLM == nil {
		return nil, errNoModel
	}

	prompt := fmt.Sprintf(stockPrompt, in.String("data1"), in.String("data2"), in.String("data3"))
	answer, err := n.LLM.Generate(ctx, llm.Part{Text: prompt})
	if err != nil {
		return nil, err
	}

	var pick stockPick
	if err := llm.DecodeJSON(answer, &pick); err != nil {
		return nil, err
	}

	current, err := price(pick.CurrentPrice)
	if err != nil {
		return nil, err
	}
	target, err := price(pick.TargetPrice)
	if err != nil {
		return nil, err
	}
	stop, err := price(pick.StopLoss)
	if err != nil {
		return nil, err
	}

	return api.Output{
		"stock_name":        or(pick.StockName, "Unknown"),
		"stock_code":        or(pick.StockCode, "N/A"),
		"reason":            or(pick.Reason, "이유 없음"),
		"current_price_krw": current,
		"target_price_krw":  target,
		"stop_loss_krw":     stop,
		"investment_period": or(pick.InvestmentPeriod, "N/A"),
		"risk_level":        or(pick.RiskLevel, "N/A"),
		"additional_info":   or(pick.AdditionalInfo, "추가 정보 없음"),
		"success":           true,
	}, nil
}

func price(n json.Number) (float64, error) {
	if n == "" {
		return 0, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, api.Wrap(api.FailureInternal, err, "model returned a non-numeric price %q", string(n))
	}
	return f, nil
}

func or(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
