package nodeflux_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/petrijr/nodeflux"
)

type shoutNode struct{}

func (shoutNode) Descriptor() nodeflux.Descriptor {
	return nodeflux.Descriptor{ID: "shout", Name: "Shout", Type: nodeflux.NodeTypeProcess}
}

func (shoutNode) InputSchema() *nodeflux.Schema {
	return &nodeflux.Schema{Fields: []nodeflux.Field{
		{Name: "text", Type: nodeflux.FieldString, Required: true},
	}}
}

func (shoutNode) OutputSchema() *nodeflux.Schema {
	return &nodeflux.Schema{Fields: []nodeflux.Field{
		{Name: "shouted", Type: nodeflux.FieldString, Required: true},
	}}
}

func (shoutNode) Execute(ctx context.Context, in nodeflux.Input) (nodeflux.Output, error) {
	return nodeflux.Output{"shouted": strings.ToUpper(in.String("text")) + "!"}, nil
}

// Example_catalogBuilder assembles a one-node catalogue and dispatches to it.
func Example_catalogBuilder() {
	ctx := context.Background()

	d, err := nodeflux.NewCatalog().AddNode(shoutNode{}).Build()
	if err != nil {
		log.Fatal(err)
	}

	for _, id := range []string{"shout", "whisper"} {
		res := d.Execute(ctx, id, map[string]any{"text": "hello"})
		b, _ := json.Marshal(res)
		fmt.Printf("%s %s\n", res.Stage, b)
	}

	res := d.Execute(ctx, "shout", map[string]any{})
	fmt.Println(res.Stage, res.Success)

	// Output:
	// succeeded {"success":true,"outputs":{"shouted":"HELLO!"}}
	// not_found {"success":false,"error":"Node 'whisper' not found"}
	// validation_failed false
}
