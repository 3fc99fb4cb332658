// Package nodes is the built-in node catalogue.
package nodes

import (
	"github.com/petrijr/nodeflux/pkg/api"
	"github.com/petrijr/nodeflux/pkg/nodes/broker"
	"github.com/petrijr/nodeflux/pkg/nodes/llm"
	"github.com/petrijr/nodeflux/pkg/nodes/scrape"
)

// Categories group nodes in the editor palette.
const (
	CategoryAI   = "ai"
	CategoryTest = "test"
)

var errNoModel = api.Fail(api.FailureUnavailable, "no language model configured")

// Deps are the collaborators shared by the built-in nodes. Nil
// collaborators make the nodes that need them fail when executed; they are
// still listed.
type Deps struct {
	LLM     llm.Generator
	Fetcher scrape.Fetcher
	Stocks  *broker.Directory
	Broker  broker.Broker
}

// Catalog returns the built-in nodes in listing order.
func Catalog(deps Deps) []api.Factory {
	return []api.Factory{
		api.Prototype(&TestNode{}),
		api.Prototype(&TestNode2{}),
		api.Prototype(&StockRecommendNode{LLM: deps.LLM}),
		api.Prototype(&WebSummaryNode{LLM: deps.LLM, Fetcher: deps.Fetcher}),
		api.Prototype(&YouTubeSummaryNode{LLM: deps.LLM}),
		api.Prototype(&StockBuyNode{Stocks: deps.Stocks, Broker: deps.Broker}),
	}
}
