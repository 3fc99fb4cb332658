package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/petrijr/nodeflux/pkg/api"
)

const (
	// KISDemoURL is the Korea Investment & Securities virtual-trading server.
	KISDemoURL = "https://openapivts.koreainvestment.com:29443"

	kisTokenPath = "/oauth2/tokenP"
	kisOrderPath = "/uapi/domestic-stock/v1/trading/order-cash"

	// Cash buy on the virtual-trading server.
	kisDemoBuyTR = "VTTC0802U"

	// Order division: 00 limit, 01 market.
	kisLimitOrder  = "00"
	kisMarketOrder = "01"
)

// KISConfig configures a KISBroker.
type KISConfig struct {
	AppKey    string
	AppSecret string
	Account   Account
	// BaseURL defaults to KISDemoURL.
	BaseURL    string
	HTTPClient *http.Client
	Now        func() time.Time
}

// KISBroker places cash buy orders through the KIS Open API on the
// virtual-trading server. Access tokens are fetched on first use and
// reused until shortly before they expire.
type KISBroker struct {
	cfg  KISConfig
	http *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

var _ Broker = (*KISBroker)(nil)

func NewKISBroker(cfg KISConfig) *KISBroker {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = KISDemoURL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &KISBroker{cfg: cfg, http: client}
}

type kisTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	ErrorCode   string `json:"error_code"`
	ErrorDesc   string `json:"error_description"`
}

type kisOrderRequest struct {
	CANO         string `json:"CANO"`
	AcntPrdtCd   string `json:"ACNT_PRDT_CD"`
	PDNO         string `json:"PDNO"`
	OrdDvsn      string `json:"ORD_DVSN"`
	OrdQty       string `json:"ORD_QTY"`
	OrdUnpr      string `json:"ORD_UNPR"`
	ExcgIDDvsnCd string `json:"EXCG_ID_DVSN_CD"`
}

type kisOrderResponse struct {
	RtCd   string `json:"rt_cd"`
	MsgCd  string `json:"msg_cd"`
	Msg1   string `json:"msg1"`
	Output struct {
		OrgNo  string `json:"KRX_FWDG_ORD_ORGNO"`
		ODNO   string `json:"ODNO"`
		OrdTmd string `json:"ORD_TMD"`
	} `json:"output"`
}

func (b *KISBroker) Buy(ctx context.Context, req OrderRequest) (Receipt, error) {
	if b.cfg.AppKey == "" || b.cfg.AppSecret == "" {
		return Receipt{}, api.Fail(api.FailureUnavailable, "KIS app key and secret are not configured")
	}
	if b.cfg.Account.Number == "" || b.cfg.Account.Product == "" {
		return Receipt{}, api.Fail(api.FailureUnavailable, "brokerage account is not configured")
	}
	if req.Listing.Code == "" {
		return Receipt{}, api.Fail(api.FailureInvalidArgument, "order has no stock code")
	}
	if req.Quantity < 1 {
		return Receipt{}, api.Fail(api.FailureInvalidArgument, "order quantity must be at least 1, got %d", req.Quantity)
	}

	token, err := b.accessToken(ctx)
	if err != nil {
		return Receipt{}, err
	}

	division := kisMarketOrder
	if req.Price > 0 {
		division = kisLimitOrder
	}
	body := kisOrderRequest{
		CANO:         b.cfg.Account.Number,
		AcntPrdtCd:   b.cfg.Account.Product,
		PDNO:         req.Listing.Code,
		OrdDvsn:      division,
		OrdQty:       strconv.Itoa(req.Quantity),
		OrdUnpr:      strconv.Itoa(req.Price),
		ExcgIDDvsnCd: "KRX",
	}
	headers := map[string]string{
		"authorization": "Bearer " + token,
		"appkey":        b.cfg.AppKey,
		"appsecret":     b.cfg.AppSecret,
		"tr_id":         kisDemoBuyTR,
		"custtype":      "P",
	}

	var out kisOrderResponse
	if err := b.post(ctx, kisOrderPath, headers, body, &out); err != nil {
		return Receipt{}, err
	}
	if out.RtCd != "0" {
		return Receipt{}, api.Fail(api.FailureInvalidArgument, "KIS rejected order (%s): %s", out.MsgCd, strings.TrimSpace(out.Msg1))
	}
	if out.Output.ODNO == "" {
		return Receipt{}, api.Fail(api.FailureInternal, "KIS accepted order without an order number")
	}
	return Receipt{
		OrderID: out.Output.OrgNo + out.Output.ODNO,
		Price:   body.OrdUnpr,
		Time:    out.Output.OrdTmd,
	}, nil
}

func (b *KISBroker) accessToken(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.cfg.Now()
	if b.token != "" && now.Before(b.expires) {
		return b.token, nil
	}

	var out kisTokenResponse
	err := b.post(ctx, kisTokenPath, nil, map[string]string{
		"grant_type": "client_credentials",
		"appkey":     b.cfg.AppKey,
		"appsecret":  b.cfg.AppSecret,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", api.Fail(api.FailureUnavailable, "KIS token request failed: %s %s", out.ErrorCode, out.ErrorDesc)
	}

	ttl := time.Duration(out.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	b.token = out.AccessToken
	b.expires = now.Add(ttl - time.Minute)
	return b.token, nil
}

func (b *KISBroker) post(ctx context.Context, path string, headers map[string]string, in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return api.Wrap(api.FailureInternal, err, "encode KIS request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return api.Wrap(api.FailureInternal, err, "build KIS request")
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return api.Wrap(api.FailureUnavailable, err, "KIS request failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return api.Wrap(api.FailureUnavailable, err, "read KIS response")
	}
	if err := json.Unmarshal(payload, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return api.Fail(api.FailureUnavailable, "KIS returned HTTP %d", resp.StatusCode)
		}
		return api.Wrap(api.FailureInternal, err, "decode KIS response")
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return api.Fail(api.FailureUnavailable, "KIS returned HTTP %d", resp.StatusCode)
	}
	return nil
}
