package nodes

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/petrijr/nodeflux/internal/engine"
	"github.com/petrijr/nodeflux/pkg/api"
	"github.com/petrijr/nodeflux/pkg/lazy"
	"github.com/petrijr/nodeflux/pkg/nodes/broker"
	"github.com/petrijr/nodeflux/pkg/nodes/llm"
	"github.com/petrijr/nodeflux/pkg/nodes/scrape"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	mu     sync.Mutex
	answer string
	err    error
	calls  [][]llm.Part
}

func (f *fakeLLM) Generate(ctx context.Context, parts ...llm.Part) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, parts)
	return f.answer, f.err
}

type fakeFetcher struct {
	page scrape.Page
	err  error
}

func (f fakeFetcher) Fetch(ctx context.Context, url string) (scrape.Page, error) {
	return f.page, f.err
}

func newDispatcher(t *testing.T, deps Deps) api.Dispatcher {
	t.Helper()
	reg, err := engine.NewRegistry(Catalog(deps)...)
	require.NoError(t, err)
	return engine.NewEngine(reg)
}

func TestCatalogListsEveryNode(t *testing.T) {
	d := newDispatcher(t, Deps{})

	var ids []string
	for _, info := range d.ListNodes(context.Background()) {
		require.Empty(t, info.Error, info.ID)
		ids = append(ids, info.ID)
	}
	require.Equal(t, []string{
		"test_node",
		"test_node_2",
		"stock_recommend_gemini",
		"web_summary_gemini",
		"youtube_summary_gemini",
		"stock_buy_node",
	}, ids)
}

func TestTestNodeScenarios(t *testing.T) {
	d := newDispatcher(t, Deps{})
	ctx := context.Background()

	res := d.Execute(ctx, "test_node", map[string]any{"text": "hello", "number": 3.0})
	require.True(t, res.Success, res.Error)
	require.Equal(t, map[string]any{"processed": "[3] HELLO", "length": 5}, res.Outputs)

	res = d.Execute(ctx, "test_node", map[string]any{"number": 3})
	require.False(t, res.Success)
	require.Equal(t, api.StageValidationFailed, res.Stage)
	require.Contains(t, res.Error, "text: missing")

	res = d.Execute(ctx, "test_node", map[string]any{"text": "hi", "number": "not-a-number"})
	require.False(t, res.Success)
	require.Equal(t, api.StageValidationFailed, res.Stage)
	require.Contains(t, res.Error, "number: type")
	require.NotContains(t, res.Error, "text:")

	res = d.Execute(ctx, "nonexistent-id", map[string]any{})
	require.Equal(t, api.StageNotFound, res.Stage)

	res = d.Execute(ctx, "test_node", map[string]any{"text": "한글"})
	require.True(t, res.Success)
	require.Equal(t, map[string]any{"processed": "[0] 한글", "length": 2}, res.Outputs)
}

func TestTestNode2(t *testing.T) {
	d := newDispatcher(t, Deps{})

	res := d.Execute(context.Background(), "test_node_2", map[string]any{"text1": "a", "text2": "bc"})
	require.True(t, res.Success, res.Error)
	require.Equal(t, map[string]any{"processed": "[a] [bc]", "length": 8}, res.Outputs)
}

func TestStockRecommend(t *testing.T) {
	model := &fakeLLM{answer: "```json\n" + `{
		"stock_name": "삼성전자",
		"stock_code": "005930",
		"reason": "반도체 업황 개선",
		"current_price_krw": 71000,
		"target_price_krw": "85000",
		"investment_period": "중기",
		"risk_level": "중간"
	}` + "\n```"}
	d := newDispatcher(t, Deps{LLM: model})

	res := d.Execute(context.Background(), "stock_recommend_gemini", map[string]any{"data1": "반도체 강세"})
	require.True(t, res.Success, res.Error)
	require.Equal(t, "삼성전자", res.Outputs["stock_name"])
	require.Equal(t, 71000.0, res.Outputs["current_price_krw"])
	require.Equal(t, 85000.0, res.Outputs["target_price_krw"])
	require.Equal(t, 0.0, res.Outputs["stop_loss_krw"])
	require.Equal(t, "추가 정보 없음", res.Outputs["additional_info"])
	require.Equal(t, true, res.Outputs["success"])

	require.Len(t, model.calls, 1)
	require.Contains(t, model.calls[0][0].Text, "반도체 강세")
}

func TestStockRecommendFailures(t *testing.T) {
	ctx := context.Background()

	res := newDispatcher(t, Deps{}).Execute(ctx, "stock_recommend_gemini", map[string]any{"data1": "x"})
	require.Equal(t, api.StageExecutionFailed, res.Stage)
	require.Equal(t, api.FailureUnavailable, res.Kind)

	res = newDispatcher(t, Deps{LLM: &fakeLLM{answer: "I cannot help with that"}}).
		Execute(ctx, "stock_recommend_gemini", map[string]any{"data1": "x"})
	require.Equal(t, api.StageExecutionFailed, res.Stage)
	require.Contains(t, res.Error, "I cannot help with that")

	res = newDispatcher(t, Deps{LLM: &fakeLLM{err: api.Fail(api.FailureUnavailable, "gemini API key is not configured")}}).
		Execute(ctx, "stock_recommend_gemini", map[string]any{"data1": "x"})
	require.Equal(t, "Execution error: gemini API key is not configured", res.Error)
}

func TestWebSummary(t *testing.T) {
	model := &fakeLLM{answer: `{"summary":"짧은 요약","key_points":["a","b"]}`}
	page := scrape.Page{Title: "Market Wrap", Content: strings.Repeat("content ", 10)}
	d := newDispatcher(t, Deps{LLM: model, Fetcher: fakeFetcher{page: page}})

	res := d.Execute(context.Background(), "web_summary_gemini", map[string]any{
		"url":          "https://example.com/news",
		"summary_type": "bullet",
		"max_length":   300,
	})
	require.True(t, res.Success, res.Error)
	require.Equal(t, map[string]any{
		"title":        "Market Wrap",
		"url":          "https://example.com/news",
		"summary":      "짧은 요약",
		"key_points":   []string{"a", "b"},
		"summary_type": "bullet",
		"word_count":   5,
		"success":      true,
	}, res.Outputs)

	prompt := model.calls[0][0].Text
	require.Contains(t, prompt, "불릿 포인트")
	require.Contains(t, prompt, "300자")
}

func TestWebSummaryRejectsThinPagesAndBadTypes(t *testing.T) {
	model := &fakeLLM{answer: `{}`}
	d := newDispatcher(t, Deps{LLM: model, Fetcher: fakeFetcher{page: scrape.Page{Title: "t", Content: "too short"}}})
	ctx := context.Background()

	res := d.Execute(ctx, "web_summary_gemini", map[string]any{"url": "https://example.com"})
	require.Equal(t, api.StageExecutionFailed, res.Stage)
	require.Equal(t, api.FailureInvalidArgument, res.Kind)
	require.Empty(t, model.calls)

	res = d.Execute(ctx, "web_summary_gemini", map[string]any{"url": "https://example.com", "summary_type": "haiku"})
	require.Equal(t, api.StageValidationFailed, res.Stage)
	require.Contains(t, res.Error, "summary_type: constraint")
}

func TestWebSummaryDefaultsMissingAnswerFields(t *testing.T) {
	model := &fakeLLM{answer: `{}`}
	page := scrape.Page{Title: "t", Content: strings.Repeat("x", 60)}
	d := newDispatcher(t, Deps{LLM: model, Fetcher: fakeFetcher{page: page}})

	res := d.Execute(context.Background(), "web_summary_gemini", map[string]any{"url": "https://example.com"})
	require.True(t, res.Success, res.Error)
	require.Equal(t, "요약을 생성할 수 없습니다.", res.Outputs["summary"])
	require.Equal(t, []string{}, res.Outputs["key_points"])
	require.Equal(t, "general", res.Outputs["summary_type"])
}

func TestVideoID(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":       "dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42":      "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ":         "dQw4w9WgXcQ",
		"https://www.youtube.com/v/dQw4w9WgXcQ?version=3":   "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                      "dQw4w9WgXcQ",
		"youtu.be/dQw4w9WgXcQ#t=1":                          "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/abcDEF12345":        "abcDEF12345",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ&list=PL": "dQw4w9WgXcQ",
	}
	for url, want := range tests {
		got, err := VideoID(url)
		require.NoError(t, err, url)
		require.Equal(t, want, got, url)
	}

	_, err := VideoID("https://vimeo.com/123")
	require.Equal(t, api.FailureInvalidArgument, api.KindOf(err))
}

func TestYouTubeSummary(t *testing.T) {
	model := &fakeLLM{answer: `{"title":"Never Gonna","summary":"노래","key_points":["x"]}`}
	d := newDispatcher(t, Deps{LLM: model})

	res := d.Execute(context.Background(), "youtube_summary_gemini", map[string]any{"url": "https://youtu.be/dQw4w9WgXcQ"})
	require.True(t, res.Success, res.Error)
	require.Equal(t, "dQw4w9WgXcQ", res.Outputs["video_id"])
	require.Equal(t, "Never Gonna", res.Outputs["title"])
	require.Equal(t, 2, res.Outputs["word_count"])

	parts := model.calls[0]
	require.Equal(t, "https://youtu.be/dQw4w9WgXcQ", parts[0].FileURI)
	require.Contains(t, parts[1].Text, "핵심 내용을 간결하게 500자")

	res = d.Execute(context.Background(), "youtube_summary_gemini", map[string]any{"url": "https://example.com"})
	require.Equal(t, api.StageExecutionFailed, res.Stage)
	require.Equal(t, api.FailureInvalidArgument, res.Kind)
}

func TestStockBuy(t *testing.T) {
	stocks := broker.NewDirectoryFrom(lazy.Of(broker.Tables{
		KOSPI: []broker.Listing{{Code: "005930", Name: "삼성전자", Market: broker.KOSPI}},
	}))
	b := broker.NewPaperBroker(broker.Account{Number: "50123456", Product: "01"})
	d := newDispatcher(t, Deps{Stocks: stocks, Broker: b})
	ctx := context.Background()

	res := d.Execute(ctx, "stock_buy_node", map[string]any{"stock_name": "삼성전자", "quantity": 3})
	require.True(t, res.Success, res.Error)
	require.Equal(t, "005930", res.Outputs["stock_code"])
	require.Equal(t, 3, res.Outputs["quantity"])
	require.Equal(t, "'삼성전자' 3주 매수 주문이 모의로 기록되었습니다. 실제 주문은 전송되지 않았습니다.", res.Outputs["message"])
	require.Equal(t, true, res.Outputs["simulated"])
	require.NotEmpty(t, res.Outputs["order_id"])

	res = d.Execute(ctx, "stock_buy_node", map[string]any{"stock_name": "없는회사"})
	require.Equal(t, api.StageExecutionFailed, res.Stage)
	require.Equal(t, api.FailureNotFound, res.Kind)

	res = d.Execute(ctx, "stock_buy_node", map[string]any{"stock_name": "삼성전자", "quantity": 0})
	require.Equal(t, api.StageValidationFailed, res.Stage)
	require.Contains(t, res.Error, "quantity: constraint")
}

// liveBroker acknowledges every order as if a trading server accepted it.
type liveBroker struct{}

func (liveBroker) Buy(ctx context.Context, req broker.OrderRequest) (broker.Receipt, error) {
	return broker.Receipt{OrderID: "0000112345", Price: "0", Time: "101500"}, nil
}

func TestStockBuyThroughTradingServer(t *testing.T) {
	stocks := broker.NewDirectoryFrom(lazy.Of(broker.Tables{
		KOSPI: []broker.Listing{{Code: "005930", Name: "삼성전자", Market: broker.KOSPI}},
	}))
	d := newDispatcher(t, Deps{Stocks: stocks, Broker: liveBroker{}})

	res := d.Execute(context.Background(), "stock_buy_node", map[string]any{"stock_name": "삼성전자"})
	require.True(t, res.Success, res.Error)
	require.Equal(t, "'삼성전자' 1주 매수 주문이 성공적으로 접수되었습니다.", res.Outputs["message"])
	require.Equal(t, false, res.Outputs["simulated"])
	require.Equal(t, "0000112345", res.Outputs["order_id"])
}

func TestStockBuyWithoutAccount(t *testing.T) {
	stocks := broker.NewDirectoryFrom(lazy.Of(broker.Tables{
		KOSPI: []broker.Listing{{Code: "005930", Name: "삼성전자", Market: broker.KOSPI}},
	}))
	d := newDispatcher(t, Deps{Stocks: stocks, Broker: broker.NewPaperBroker(broker.Account{})})

	res := d.Execute(context.Background(), "stock_buy_node", map[string]any{"stock_name": "삼성전자"})
	require.Equal(t, api.StageExecutionFailed, res.Stage)
	require.Contains(t, res.Error, "account is not configured")
}
