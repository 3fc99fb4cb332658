package broker

import (
	"context"
	"strings"

	"github.com/petrijr/nodeflux/pkg/api"
	"github.com/petrijr/nodeflux/pkg/lazy"
)

// Directory looks up listings by Korean name. The master tables are loaded
// on first use and shared by every lookup afterwards.
type Directory struct {
	tables *lazy.Value[Tables]
}

// NewDirectory returns a directory reading master files from dir.
func NewDirectory(dir string) *Directory {
	return &Directory{tables: lazy.New(LoadMasterDir(dir))}
}

// NewDirectoryFrom wraps an existing table cache, typically lazy.Of in tests.
func NewDirectoryFrom(tables *lazy.Value[Tables]) *Directory {
	return &Directory{tables: tables}
}

// Find resolves name to a listing. KOSPI is searched before KOSDAQ; within
// a market an exact name match beats the first listing containing name.
func (d *Directory) Find(ctx context.Context, name string) (Listing, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Listing{}, api.Fail(api.FailureInvalidArgument, "stock name is empty")
	}

	tables, err := d.tables.Get(ctx)
	if err != nil {
		return Listing{}, api.Wrap(api.FailureUnavailable, err, "load stock master tables")
	}

	for _, market := range [][]Listing{tables.KOSPI, tables.KOSDAQ} {
		if l, ok := match(market, name); ok {
			return l, nil
		}
	}
	return Listing{}, api.Fail(api.FailureNotFound, "no stock code found for %q", name)
}

func match(listings []Listing, name string) (Listing, bool) {
	for _, l := range listings {
		if l.Name == name {
			return l, true
		}
	}
	for _, l := range listings {
		if strings.Contains(l.Name, name) {
			return l, true
		}
	}
	return Listing{}, false
}
