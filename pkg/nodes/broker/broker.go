package broker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/petrijr/nodeflux/pkg/api"
)

// OrderRequest is a cash buy order for a listed stock.
type OrderRequest struct {
	Listing  Listing
	Quantity int
	// Price is the limit price in KRW; zero means market price.
	Price int
}

// Receipt is the broker's acknowledgement of an accepted order.
type Receipt struct {
	OrderID string
	Price   string
	Time    string
	// Simulated is set when no order reached a trading server.
	Simulated bool
}

// Broker places orders on behalf of a configured account.
type Broker interface {
	Buy(ctx context.Context, req OrderRequest) (Receipt, error)
}

// Account identifies a brokerage account: the eight-digit account number
// and the two-digit product code.
type Account struct {
	Number  string
	Product string
}

// PaperBroker records orders locally without contacting any trading
// server; every receipt it returns is marked Simulated. Order numbers
// increase monotonically per broker.
type PaperBroker struct {
	Account Account
	// Branch is the order-handling branch prefixed to order numbers.
	Branch string
	Now    func() time.Time

	seq atomic.Int64
}

var _ Broker = (*PaperBroker)(nil)

func NewPaperBroker(acct Account) *PaperBroker {
	return &PaperBroker{Account: acct, Branch: "00950", Now: time.Now}
}

func (b *PaperBroker) Buy(ctx context.Context, req OrderRequest) (Receipt, error) {
	if b.Account.Number == "" || b.Account.Product == "" {
		return Receipt{}, api.Fail(api.FailureUnavailable, "brokerage account is not configured")
	}
	if req.Listing.Code == "" {
		return Receipt{}, api.Fail(api.FailureInvalidArgument, "order has no stock code")
	}
	if req.Quantity < 1 {
		return Receipt{}, api.Fail(api.FailureInvalidArgument, "order quantity must be at least 1, got %d", req.Quantity)
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, api.Wrap(api.FailureUnavailable, err, "place order")
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	return Receipt{
		OrderID:   b.Branch + fmt.Sprintf("%010d", b.seq.Add(1)),
		Price:     strconv.Itoa(req.Price),
		Time:      now().Format("150405"),
		Simulated: true,
	}, nil
}
