package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/bridgeboard/bridgeboard/internal/board"
	"github.com/bridgeboard/bridgeboard/pkg/types"
)

// createRequest is the POST /v1/requests body. Amounts are decimal strings
// in the host chain's smallest unit.
type createRequest struct {
	Requestor       string `json:"requestor"`
	PayloadRef      string `json:"payload_ref"`
	InclusionReward string `json:"inclusion_reward"`
	TallyReward     string `json:"tally_reward"`
	DepositedValue  string `json:"deposited_value"`
	GasPrice        string `json:"gas_price"`
}

type upgradeRewardRequest struct {
	AddInclusion string `json:"add_inclusion"`
	AddTally     string `json:"add_tally"`
	AddedValue   string `json:"added_value"`
	GasPrice     string `json:"gas_price"`
}

type claimabilityRequest struct {
	Handles []types.Handle `json:"handles"`
}

type claimRequest struct {
	Caller      string         `json:"caller"`
	Handles     []types.Handle `json:"handles"`
	Proof       hexutil.Bytes  `json:"proof"`
	PublicKey   hexutil.Bytes  `json:"public_key"`
	UPoint      hexutil.Bytes  `json:"u_point"`
	VComponents hexutil.Bytes  `json:"v_components"`
	Signature   hexutil.Bytes  `json:"signature"`
}

type inclusionReport struct {
	Caller    string        `json:"caller"`
	Handle    types.Handle  `json:"handle"`
	Proof     []common.Hash `json:"proof"`
	Index     uint64        `json:"index"`
	BlockHash common.Hash   `json:"block_hash"`
	Epoch     uint64        `json:"epoch"`
}

type resultReport struct {
	Caller    string        `json:"caller"`
	Handle    types.Handle  `json:"handle"`
	Proof     []common.Hash `json:"proof"`
	Index     uint64        `json:"index"`
	BlockHash common.Hash   `json:"block_hash"`
	Epoch     uint64        `json:"epoch"`
	Result    hexutil.Bytes `json:"result"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}

	requestor, err := parseAddress(req.Requestor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amounts, err := parseAmounts(req.InclusionReward, req.TallyReward, req.DepositedValue, req.GasPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	handle, err := s.board.Create(requestor, req.PayloadRef, amounts[0], amounts[1], amounts[2], amounts[3])
	s.observe("create", start, err)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"handle": handle})
}

func (s *Server) handleUpgradeReward(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	handle, err := parseHandle(r.PathValue("handle"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req upgradeRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	amounts, err := parseAmounts(req.AddInclusion, req.AddTally, req.AddedValue, req.GasPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.board.UpgradeReward(handle, amounts[0], amounts[1], amounts[2], amounts[3])
	s.observe("upgrade_reward", start, err)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"handle": handle})
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	handle, err := parseHandle(r.PathValue("handle"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	summary, err := s.board.GetRequest(handle)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReadPayload(w http.ResponseWriter, r *http.Request) {
	handle, err := parseHandle(r.PathValue("handle"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payload, err := s.board.ReadPayload(handle)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payload": hexutil.Bytes(payload)})
}

func (s *Server) handleReadResult(w http.ResponseWriter, r *http.Request) {
	handle, err := parseHandle(r.PathValue("handle"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.board.ReadResult(handle)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": hexutil.Bytes(result)})
}

func (s *Server) handleClaimability(w http.ResponseWriter, r *http.Request) {
	var req claimabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	claimable, err := s.board.CheckClaimability(req.Handles)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claimable": claimable})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.board.Claim(caller, board.ClaimSubmission{
		Handles:     req.Handles,
		Proof:       req.Proof,
		PublicKey:   req.PublicKey,
		UPoint:      req.UPoint,
		VComponents: req.VComponents,
		Signature:   req.Signature,
	})
	s.observe("claim", start, err)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claimed": len(req.Handles)})
}

func (s *Server) handleReportInclusion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req inclusionReport
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.board.ReportInclusion(caller, req.Handle, req.Proof, req.Index, req.BlockHash, req.Epoch)
	s.observe("report_inclusion", start, err)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"handle": req.Handle})
}

func (s *Server) handleReportResult(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req resultReport
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.board.ReportResult(caller, req.Handle, req.Proof, req.Index, req.BlockHash, req.Epoch, req.Result)
	s.observe("report_result", start, err)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"handle": req.Handle})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address": addr,
		"balance": s.board.BalanceOf(addr).String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) observe(op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveOp(op, time.Since(start), err != nil)
	}
}

// writeBoardError maps the board's error classes onto HTTP statuses.
func writeBoardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, board.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, board.ErrState):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, board.ErrAuthorization):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, board.ErrProof):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseHandle(s string) (types.Handle, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid handle %q", s)
	}
	return types.Handle(n), nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// parseAmounts parses decimal big.Int strings, rejecting negatives.
func parseAmounts(values ...string) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		n, ok := new(big.Int).SetString(v, 10)
		if !ok || n.Sign() < 0 {
			return nil, fmt.Errorf("invalid amount %q", v)
		}
		out[i] = n
	}
	return out, nil
}
