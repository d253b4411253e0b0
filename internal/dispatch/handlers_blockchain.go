package dispatch

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Lerner98/TickerHub-sub000/internal/providers/explorer"
)

func (s *Server) chainAdapter(chain string) (BlockchainAdapter, bool) {
	a, ok := s.deps.Blockchain[strings.ToLower(chain)]
	return a, ok
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	chain := mux.Vars(r)["chain"]
	if !validChain(chain) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid chain", map[string]string{"field": "chain"})
		return
	}
	a, _ := s.chainAdapter(chain)
	stats, err := a.NetworkStats(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to load network stats", nil)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chain := vars["chain"]
	if !validChain(chain) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid chain", map[string]string{"field": "chain"})
		return
	}
	limit, ok := parseLimit(vars["limit"])
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_error", "limit must be in [1,100]", map[string]string{"field": "limit"})
		return
	}
	page, ok := parsePage(vars["page"])
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_error", "page must be >= 1", map[string]string{"field": "page"})
		return
	}

	a, _ := s.chainAdapter(chain)
	blocks, err := a.ListBlocks(r.Context(), limit, page)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to load blocks", nil)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chain, number := vars["chain"], vars["number"]
	if !validChain(chain) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid chain", map[string]string{"field": "chain"})
		return
	}
	if !validBlockNumber(number) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid block number", map[string]string{"field": "number"})
		return
	}

	a, _ := s.chainAdapter(chain)
	block, err := a.GetBlock(r.Context(), number)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to load block", nil)
		return
	}
	if block.Hash == "" {
		writeError(w, http.StatusNotFound, "not_found", "block not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (s *Server) handleBlockTxs(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chain, number := vars["chain"], vars["number"]
	if !validChain(chain) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid chain", map[string]string{"field": "chain"})
		return
	}
	if !validBlockNumber(number) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid block number", map[string]string{"field": "number"})
		return
	}

	a, _ := s.chainAdapter(chain)
	txs, err := a.GetBlockTransactions(r.Context(), number)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to load block transactions", nil)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleTx(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	if !explorer.ValidTxHash(hash) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid transaction hash", map[string]string{"field": "hash"})
		return
	}
	tx, found, err := s.deps.Explorer.Transaction(r.Context(), hash)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to load transaction", nil)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "transaction not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleAddress(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["address"]
	if !validAddress(addr) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid address", map[string]string{"field": "address"})
		return
	}
	info, found, err := s.deps.Explorer.Address(r.Context(), addr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to load address", nil)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "address not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleAddressTxs(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["address"]
	if !validAddress(addr) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid address", map[string]string{"field": "address"})
		return
	}
	txs, err := s.deps.Explorer.AddressTransactions(r.Context(), addr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upstream_error", "failed to load address transactions", nil)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func validAddress(addr string) bool {
	if explorer.DetectChain(addr) == "ethereum" {
		return explorer.ValidEthAddress(addr)
	}
	return explorer.ValidBtcAddress(addr)
}
