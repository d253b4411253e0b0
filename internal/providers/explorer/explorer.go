// Package explorer resolves transaction, address, and address-history
// lookups across both supported chains, auto-detecting which chain an input
// belongs to from its shape.
package explorer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Lerner98/TickerHub-sub000/internal/breaker"
	"github.com/Lerner98/TickerHub-sub000/internal/cache"
	"github.com/Lerner98/TickerHub-sub000/internal/dto"
	"github.com/Lerner98/TickerHub-sub000/internal/fetch"
)

var (
	ethAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	btcAddressPattern = regexp.MustCompile(`^([13][a-km-zA-HJ-NP-Z1-9]{25,34}|bc1[a-z0-9]{39,59})$`)
	txHashPattern     = regexp.MustCompile(`^(0x)?[a-fA-F0-9]{64}$`)
)

// DetectChain returns "ethereum" for a 0x-prefixed input, "bitcoin" otherwise.
// This only decides routing; the caller still validates the address shape.
func DetectChain(input string) string {
	if strings.HasPrefix(input, "0x") {
		return "ethereum"
	}
	return "bitcoin"
}

// ValidEthAddress, ValidBtcAddress, ValidTxHash implement spec §4.6's
// validation regexes.
func ValidEthAddress(addr string) bool { return ethAddressPattern.MatchString(addr) }
func ValidBtcAddress(addr string) bool { return btcAddressPattern.MatchString(addr) }
func ValidTxHash(hash string) bool     { return txHashPattern.MatchString(hash) }

const txTTL = 5 * time.Minute
const addrTTL = 2 * time.Minute

// Adapter composes the Ethereum and Bitcoin explorer breakers/fetchers under
// one chain-detecting facade.
type Adapter struct {
	cache *cache.Cache

	ethFetcher *fetch.Fetcher
	ethBreaker *breaker.Breaker
	ethBaseURL string
	ethAPIKey  string

	btcFetcher *fetch.Fetcher
	btcBreaker *breaker.Breaker
	btcBaseURL string
	btcAPIKey  string
}

// New constructs the dual-chain explorer adapter.
func New(c *cache.Cache, f *fetch.Fetcher, ethBaseURL, ethAPIKey, btcBaseURL, btcAPIKey string) *Adapter {
	return &Adapter{
		cache:      c,
		ethFetcher: f,
		ethBaseURL: ethBaseURL,
		ethAPIKey:  ethAPIKey,
		ethBreaker: breaker.New(breaker.Config{Name: "explorer:eth-tx", FailureThreshold: 3, SuccessThreshold: 2, ResetTimeout: 90 * time.Second}),
		btcFetcher: f,
		btcBaseURL: btcBaseURL,
		btcAPIKey:  btcAPIKey,
		btcBreaker: breaker.New(breaker.Config{Name: "explorer:btc-tx", FailureThreshold: 3, SuccessThreshold: 2, ResetTimeout: 90 * time.Second}),
	}
}

func (a *Adapter) IsConfigured() bool { return a.ethAPIKey != "" || a.btcAPIKey != "" }

func (a *Adapter) Status() map[string]interface{} {
	return map[string]interface{}{
		"configured": a.IsConfigured(),
		"ethereum":   a.ethBreaker.Stats().State,
		"bitcoin":    a.btcBreaker.Stats().State,
	}
}

type ethTxResp struct {
	Result struct {
		BlockNumber string `json:"blockNumber"`
		From        string `json:"from"`
		To          string `json:"to"`
		Value       string `json:"value"`
		Gas         string `json:"gas"`
		GasPrice    string `json:"gasPrice"`
		Input       string `json:"input"`
	} `json:"result"`
}

type ethReceiptResp struct {
	Result struct {
		Status string `json:"status"`
	} `json:"result"`
}

func hexToUint(hex string) uint64 {
	h := strings.TrimPrefix(hex, "0x")
	v, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		return 0
	}
	return v
}

// Transaction returns the normalized transaction for hash, auto-detecting
// its chain. Returns (zero, false) for a well-formed but absent hash.
func (a *Adapter) Transaction(ctx context.Context, hash string) (dto.Transaction, bool, error) {
	key := cache.TxKey(hash)
	if v, ok := a.cache.Get(key, txTTL); ok {
		return v.(dto.Transaction), true, nil
	}

	chain := DetectChain(hash)
	var (
		tx  dto.Transaction
		err error
		ok  bool
	)
	if chain == "ethereum" {
		tx, ok, err = a.fetchEthTx(ctx, hash)
	} else {
		tx, ok, err = a.fetchBtcTx(ctx, hash)
	}
	if err != nil {
		return dto.Transaction{}, false, err
	}
	if !ok {
		return dto.Transaction{}, false, nil
	}
	a.cache.Set(key, tx)
	return tx, true, nil
}

func (a *Adapter) fetchEthTx(ctx context.Context, hash string) (dto.Transaction, bool, error) {
	resp, err := breaker.Execute(a.ethBreaker, func() (ethTxResp, error) {
		return fetch.FetchJSON[ethTxResp](ctx, a.ethFetcher,
			fmt.Sprintf("%s?module=proxy&action=eth_getTransactionByHash&txhash=%s&apikey=%s", a.ethBaseURL, hash, a.ethAPIKey),
			10*time.Second)
	})
	if err != nil {
		return dto.Transaction{}, false, err
	}
	if resp.Result.From == "" {
		return dto.Transaction{}, false, nil
	}

	receipt, _ := breaker.Execute(a.ethBreaker, func() (ethReceiptResp, error) {
		return fetch.FetchJSON[ethReceiptResp](ctx, a.ethFetcher,
			fmt.Sprintf("%s?module=proxy&action=eth_getTransactionReceipt&txhash=%s&apikey=%s", a.ethBaseURL, hash, a.ethAPIKey),
			10*time.Second)
	})

	status := dto.TxPending
	if receipt.Result.Status == "0x1" {
		status = dto.TxConfirmed
	} else if receipt.Result.Status == "0x0" {
		status = dto.TxFailed
	}

	gas := hexToUint(resp.Result.Gas)
	input := resp.Result.Input
	return dto.Transaction{
		Hash:   hash,
		From:   resp.Result.From,
		To:     resp.Result.To,
		Value:  resp.Result.Value,
		Fee:    resp.Result.GasPrice,
		Gas:    &gas,
		Status: status,
		Input:  &input,
		Chain:  "ethereum",
	}, true, nil
}

type btcTxResp struct {
	Data map[string]struct {
		Transaction struct {
			Hash          string `json:"hash"`
			Time          string `json:"time"`
			BlockID       uint64 `json:"block_id"`
		} `json:"transaction"`
		Inputs []struct {
			Recipient string `json:"recipient"`
			Value     int64  `json:"value"`
		} `json:"inputs"`
		Outputs []struct {
			Recipient string `json:"recipient"`
			Value     int64  `json:"value"`
		} `json:"outputs"`
	} `json:"data"`
}

// fetchBtcTx derives "from" from the first input and "to" from the first
// output when present. Multiple inputs/outputs are summarized by the first
// entry rather than a "See Details" placeholder (spec §9 open question,
// resolved in DESIGN.md).
func (a *Adapter) fetchBtcTx(ctx context.Context, hash string) (dto.Transaction, bool, error) {
	resp, err := breaker.Execute(a.btcBreaker, func() (btcTxResp, error) {
		return fetch.FetchJSON[btcTxResp](ctx, a.btcFetcher, a.btcBaseURL+"/dashboards/transaction/"+hash, 10*time.Second)
	})
	if err != nil {
		return dto.Transaction{}, false, err
	}
	entry, ok := resp.Data[hash]
	if !ok {
		return dto.Transaction{}, false, nil
	}

	from, to := "See Details", "See Details"
	if len(entry.Inputs) == 1 {
		from = entry.Inputs[0].Recipient
	} else if len(entry.Inputs) > 1 {
		from = entry.Inputs[0].Recipient
	}
	if len(entry.Outputs) == 1 {
		to = entry.Outputs[0].Recipient
	} else if len(entry.Outputs) > 1 {
		to = entry.Outputs[0].Recipient
	}

	var totalValue int64
	for _, o := range entry.Outputs {
		totalValue += o.Value
	}

	return dto.Transaction{
		Hash:        entry.Transaction.Hash,
		BlockNumber: entry.Transaction.BlockID,
		From:        from,
		To:          to,
		Value:       strconv.FormatInt(totalValue, 10),
		Status:      dto.TxConfirmed,
		Chain:       "bitcoin",
	}, true, nil
}

type ethBalanceResp struct {
	Result string `json:"result"`
}

type ethTxCountResp struct {
	Result string `json:"result"`
}

type btcAddrResp struct {
	Data map[string]struct {
		Address struct {
			Balance      int64 `json:"balance"`
			TxCount      uint64 `json:"transaction_count"`
			FirstSeen    string `json:"first_seen_receiving"`
		} `json:"address"`
	} `json:"data"`
}

// Address returns the normalized balance/activity summary for addr.
func (a *Adapter) Address(ctx context.Context, addr string) (dto.AddressInfo, bool, error) {
	key := cache.AddressKey(addr)
	if v, ok := a.cache.Get(key, addrTTL); ok {
		return v.(dto.AddressInfo), true, nil
	}

	chain := DetectChain(addr)
	var (
		info dto.AddressInfo
		err  error
	)
	if chain == "ethereum" {
		info, err = a.fetchEthAddress(ctx, addr)
	} else {
		info, err = a.fetchBtcAddress(ctx, addr)
	}
	if err != nil {
		return dto.AddressInfo{}, false, err
	}
	a.cache.Set(key, info)
	return info, true, nil
}

func (a *Adapter) fetchEthAddress(ctx context.Context, addr string) (dto.AddressInfo, error) {
	balResp, err := breaker.Execute(a.ethBreaker, func() (ethBalanceResp, error) {
		return fetch.FetchJSON[ethBalanceResp](ctx, a.ethFetcher,
			fmt.Sprintf("%s?module=account&action=balance&address=%s&tag=latest&apikey=%s", a.ethBaseURL, addr, a.ethAPIKey),
			10*time.Second)
	})
	if err != nil {
		return dto.AddressInfo{}, err
	}
	countResp, _ := breaker.Execute(a.ethBreaker, func() (ethTxCountResp, error) {
		return fetch.FetchJSON[ethTxCountResp](ctx, a.ethFetcher,
			fmt.Sprintf("%s?module=proxy&action=eth_getTransactionCount&address=%s&tag=latest&apikey=%s", a.ethBaseURL, addr, a.ethAPIKey),
			10*time.Second)
	})

	return dto.AddressInfo{
		Address: addr,
		Balance: balResp.Result,
		TxCount: hexToUint(countResp.Result),
		Chain:   "ethereum",
	}, nil
}

func (a *Adapter) fetchBtcAddress(ctx context.Context, addr string) (dto.AddressInfo, error) {
	resp, err := breaker.Execute(a.btcBreaker, func() (btcAddrResp, error) {
		return fetch.FetchJSON[btcAddrResp](ctx, a.btcFetcher, a.btcBaseURL+"/dashboards/address/"+addr, 10*time.Second)
	})
	if err != nil {
		return dto.AddressInfo{}, err
	}
	entry := resp.Data[addr]
	return dto.AddressInfo{
		Address: addr,
		Balance: strconv.FormatInt(entry.Address.Balance, 10),
		TxCount: entry.Address.TxCount,
		Chain:   "bitcoin",
	}, nil
}

// AddressTransactions returns an empty transaction list for every address and
// caches it under the address's key. It makes no upstream call and performs
// no per-hash lookups, so the listing never fails.
func (a *Adapter) AddressTransactions(ctx context.Context, addr string) ([]dto.Transaction, error) {
	key := cache.AddressTxsKey(addr)
	if v, ok := a.cache.Get(key, addrTTL); ok {
		return v.([]dto.Transaction), nil
	}
	// The explorer APIs in the allowlist return transaction lists embedded
	// in the address dashboard payload itself, not as a separate call; a
	// fuller wire decode is deferred until a concrete fixture is available.
	txs := []dto.Transaction{}
	a.cache.Set(key, txs)
	return txs, nil
}
