// Package broker resolves Korean stock names to exchange codes and places
// orders with a brokerage account.
package broker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Market identifies the exchange a listing belongs to.
type Market string

const (
	KOSPI  Market = "KOSPI"
	KOSDAQ Market = "KOSDAQ"
)

const (
	KOSPIMasterFile  = "kospi_code.mst"
	KOSDAQMasterFile = "kosdaq_code.mst"
)

// Width of the fixed-format attribute block that closes every master
// record, excluding the line terminator.
const (
	kospiTailWidth  = 227
	kosdaqTailWidth = 221
)

// Columns of the leading part of a record.
const (
	shortCodeEnd = 9
	nameStart    = 21
)

// Listing is one row of a master table.
type Listing struct {
	Code   string
	Name   string
	Market Market
}

// Tables holds both master tables in file order.
type Tables struct {
	KOSPI  []Listing
	KOSDAQ []Listing
}

// Len reports the total number of listings.
func (t Tables) Len() int { return len(t.KOSPI) + len(t.KOSDAQ) }

// ParseMaster decodes an EUC-KR master file. Lines too short to carry a
// name are skipped.
func ParseMaster(r io.Reader, market Market) ([]Listing, error) {
	tail := kospiTailWidth
	if market == KOSDAQ {
		tail = kosdaqTailWidth
	}

	sc := bufio.NewScanner(transform.NewReader(r, korean.EUCKR.NewDecoder()))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	var out []Listing
	for sc.Scan() {
		line := []rune(strings.TrimRight(sc.Text(), "\r"))
		if len(line) <= tail+nameStart {
			continue
		}
		head := line[:len(line)-tail]
		code := strings.TrimSpace(string(head[:shortCodeEnd]))
		name := strings.TrimSpace(string(head[nameStart:]))
		if code == "" || name == "" {
			continue
		}
		out = append(out, Listing{Code: code, Name: name, Market: market})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s master: %w", market, err)
	}
	return out, nil
}

// LoadMasterDir reads both master files from dir. When either file is
// missing both tables are returned empty.
func LoadMasterDir(dir string) func(ctx context.Context) (Tables, error) {
	return func(ctx context.Context) (Tables, error) {
		kospi, err := readMasterFile(filepath.Join(dir, KOSPIMasterFile), KOSPI)
		if errors.Is(err, fs.ErrNotExist) {
			return Tables{}, nil
		}
		if err != nil {
			return Tables{}, err
		}
		kosdaq, err := readMasterFile(filepath.Join(dir, KOSDAQMasterFile), KOSDAQ)
		if errors.Is(err, fs.ErrNotExist) {
			return Tables{}, nil
		}
		if err != nil {
			return Tables{}, err
		}
		return Tables{KOSPI: kospi, KOSDAQ: kosdaq}, nil
	}
}

func readMasterFile(path string, market Market) ([]Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseMaster(f, market)
}

// EncodeMasterLine builds a record in master file layout, as the exchange
// distributes it, before EUC-KR encoding. Used by tests and fixtures.
func EncodeMasterLine(code, standardCode, name string, market Market) string {
	tail := kospiTailWidth
	if market == KOSDAQ {
		tail = kosdaqTailWidth
	}
	pad := func(s string, n int) string {
		if c := utf8.RuneCountInString(s); c < n {
			return s + strings.Repeat(" ", n-c)
		}
		return s
	}
	return pad(code, shortCodeEnd) + pad(standardCode, nameStart-shortCodeEnd) + name + strings.Repeat("0", tail)
}
