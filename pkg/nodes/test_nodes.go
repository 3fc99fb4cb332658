package nodes

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/petrijr/nodeflux/pkg/api"
)

var textOutputSchema = &api.Schema{Title: "TestNodeOutput", Fields: []api.Field{
	{Name: "processed", Type: api.FieldString, Description: "처리된 텍스트", Required: true},
	{Name: "length", Type: api.FieldInteger, Description: "텍스트 길이", Required: true},
}}

// TestNode upper-cases text and prefixes it with a bracketed number.
type TestNode struct{}

var _ api.Node = (*TestNode)(nil)

func (*TestNode) Descriptor() api.Descriptor {
	return api.Descriptor{
		ID:          "test_node",
		Name:        "테스트 노드",
		Description: "테스트용 노드입니다",
		Type:        api.NodeTypeProcess,
		Category:    CategoryTest,
	}
}

func (*TestNode) InputSchema() *api.Schema {
	return &api.Schema{Title: "TestNodeInput", Fields: []api.Field{
		{Name: "text", Type: api.FieldString, Description: "텍스트 입력", Required: true},
		{Name: "number", Type: api.FieldInteger, Description: "숫자 입력", Default: 0},
	}}
}

func (*TestNode) OutputSchema() *api.Schema { return textOutputSchema }

func (*TestNode) Execute(ctx context.Context, in api.Input) (api.Output, error) {
	text := in.String("text")
	return api.Output{
		"processed": fmt.Sprintf("[%d] %s", in.Int("number"), strings.ToUpper(text)),
		"length":    utf8.RuneCountInString(text),
	}, nil
}

// TestNode2 joins two texts in brackets.
type TestNode2 struct{}

var _ api.Node = (*TestNode2)(nil)

func (*TestNode2) Descriptor() api.Descriptor {
	return api.Descriptor{
		ID:          "test_node_2",
		Name:        "테스트 노드 2",
		Description: "테스트용 노드 2입니다",
		Type:        api.NodeTypeProcess,
		Category:    CategoryTest,
	}
}

func (*TestNode2) InputSchema() *api.Schema {
	return &api.Schema{Title: "TestNodeInput2", Fields: []api.Field{
		{Name: "text1", Type: api.FieldString, Description: "텍스트 입력", Required: true},
		{Name: "text2", Type: api.FieldString, Description: "텍스트 입력", Required: true},
	}}
}

func (*TestNode2) OutputSchema() *api.Schema { return textOutputSchema }

func (*TestNode2) Execute(ctx context.Context, in api.Input) (api.Output, error) {
	processed := fmt.Sprintf("[%s] [%s]", in.String("text1"), in.String("text2"))
	return api.Output{
		"processed": processed,
		"length":    utf8.RuneCountInString(processed),
	}, nil
}
