package nodeflux

import (
	"fmt"
)

// CatalogBuilder provides a fluent API for assembling a node catalogue:
//
//	d := nodeflux.NewCatalog().
//	    AddNode(&ReverseNode{}).
//	    Add(nodeflux.Prototype(&SummaryNode{LLM: client})).
//	    Observe(nodeflux.NewLoggingObserver(nil)).
//	    MustBuild()
//
//	res := d.Execute(ctx, "reverse", map[string]any{"text": "abc"})
type CatalogBuilder struct {
	factories []Factory
	observers []Observer
	err       error
}

// NewCatalog creates an empty catalogue builder.
func NewCatalog() *CatalogBuilder {
	return &CatalogBuilder{}
}

// Add appends factories in listing order.
func (b *CatalogBuilder) Add(factories ...Factory) *CatalogBuilder {
	start := len(b.factories)
	for i, f := range factories {
		if f == nil {
			b.fail(fmt.Errorf("nodeflux: factory %d is nil", start+i))
			continue
		}
		b.factories = append(b.factories, f)
	}
	return b
}

// AddNode appends a ready-made node; each invocation gets a shallow copy.
func (b *CatalogBuilder) AddNode(n Node) *CatalogBuilder {
	if n == nil {
		b.fail(fmt.Errorf("nodeflux: node %d is nil", len(b.factories)))
		return b
	}
	return b.Add(Prototype(n))
}

// Observe attaches observers; several are combined in order.
func (b *CatalogBuilder) Observe(obs ...Observer) *CatalogBuilder {
	b.observers = append(b.observers, obs...)
	return b
}

// Len returns the number of factories added so far.
func (b *CatalogBuilder) Len() int {
	return len(b.factories)
}

func (b *CatalogBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build registers the catalogue and returns its Dispatcher.
func (b *CatalogBuilder) Build() (Dispatcher, error) {
	if b.err != nil {
		return nil, b.err
	}
	var obs Observer
	if len(b.observers) > 0 {
		obs = NewCompositeObserver(b.observers...)
	}
	return NewDispatcherWithObserver(obs, b.factories...)
}

// MustBuild is like Build but panics on error.
// Useful for initialization in main().
func (b *CatalogBuilder) MustBuild() Dispatcher {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
