package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/services"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

type createVaultRequest struct {
	Authority string `json:"authority"`
	Signature string `json:"signature"`
}

func (req *createVaultRequest) validate() *types.Error {
	if req.Authority == "" {
		return types.NewValidationFailedError(errors.New("authority is required"))
	}
	return nil
}

type createStakeRecordRequest struct {
	Participant string `json:"participant"`
	Vault       string `json:"vault"`
	Signature   string `json:"signature"`
}

func (req *createStakeRecordRequest) validate() *types.Error {
	switch {
	case req.Participant == "":
		return types.NewValidationFailedError(errors.New("participant is required"))
	case req.Vault == "":
		return types.NewValidationFailedError(errors.New("vault is required"))
	}
	return nil
}

type amountRequest struct {
	Amount    string `json:"amount"`
	Signature string `json:"signature"`
}

// amount parses the decimal amount in smallest custody units.
func (req *amountRequest) amount() (uint64, *types.Error) {
	if req.Amount == "" {
		return 0, types.NewValidationFailedError(errors.New("amount is required"))
	}
	amount, err := strconv.ParseUint(req.Amount, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, types.NewLedgerError(types.ArithmeticOverflow, "amount %s does not fit in 64 bits", req.Amount)
		}
		return 0, types.NewLedgerError(types.InvalidAmount, "amount %q is not a non-negative integer", req.Amount)
	}
	return amount, nil
}

type claimRequest struct {
	Signature string `json:"signature"`
}

type VaultResponse struct {
	Authority         string `json:"authority"`
	Address           string `json:"address,omitempty"`
	TotalStakedAmount uint64 `json:"total_staked_amount,string"`
}

type StakeRecordResponse struct {
	Participant    string `json:"participant"`
	Address        string `json:"address,omitempty"`
	Vault          string `json:"vault"`
	State          string `json:"state"`
	StakedAmount   uint64 `json:"staked_amount,string"`
	TotalPoints    string `json:"total_points"`
	LastUpdateTime int64  `json:"last_update_time"`
	LockStart      int64  `json:"lock_start"`
	PendingClaims  int    `json:"pending_claims"`
	// set on reads only
	PendingPoints string `json:"pending_points,omitempty"`
	PointsAt      string `json:"points_at,omitempty"`
	At            int64  `json:"at,omitempty"`
}

type StakeResponse struct {
	StakeRecord StakeRecordResponse `json:"stake_record"`
	VaultTotal  uint64              `json:"vault_total_staked_amount,string"`
}

type ClaimResponse struct {
	Participant string `json:"participant"`
	Points      string `json:"points"`
	ClaimedAt   int64  `json:"claimed_at"`
	ClaimID     string `json:"claim_id,omitempty"`
}

type ConsistencyResponse struct {
	Vault             string  `json:"vault"`
	TotalStakedAmount uint64  `json:"total_staked_amount,string"`
	StakedSum         uint64  `json:"staked_sum,string"`
	StakeRecords      uint64  `json:"stake_records"`
	CustodyBalance    *uint64 `json:"custody_balance,omitempty,string"`
	Consistent        bool    `json:"consistent"`
}

func stakeRecordResponse(record *model.StakeRecord) StakeRecordResponse {
	return StakeRecordResponse{
		Participant:    record.Participant,
		Vault:          record.Vault,
		State:          types.StateActive.String(),
		StakedAmount:   record.StakedAmount,
		TotalPoints:    record.TotalPoints.String(),
		LastUpdateTime: record.LastUpdateTime,
		LockStart:      record.LockStart,
		PendingClaims:  len(record.PendingClaims),
	}
}

func (h *Handler) createVault(w http.ResponseWriter, r *http.Request) *types.Error {
	var req createVaultRequest
	if err := parseJSON(r.Body, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	vault, err := h.service.CreateVault(r.Context(), req.Authority, req.Signature)
	if err != nil {
		return err
	}

	writeJSON(r, w, http.StatusCreated, VaultResponse{
		Authority:         vault.Authority,
		TotalStakedAmount: vault.TotalStakedAmount,
	})
	return nil
}

func (h *Handler) getVault(w http.ResponseWriter, r *http.Request) *types.Error {
	details, err := h.service.GetVault(r.Context(), chi.URLParam(r, "authority"))
	if err != nil {
		return err
	}

	writeJSON(r, w, http.StatusOK, VaultResponse{
		Authority:         details.Vault.Authority,
		Address:           details.Address,
		TotalStakedAmount: details.Vault.TotalStakedAmount,
	})
	return nil
}

func (h *Handler) checkVaultConsistency(w http.ResponseWriter, r *http.Request) *types.Error {
	report, err := h.service.CheckVaultConsistency(r.Context(), chi.URLParam(r, "authority"))
	if err != nil {
		return err
	}

	writeJSON(r, w, http.StatusOK, consistencyResponse(report))
	return nil
}

func consistencyResponse(report *services.ConsistencyReport) ConsistencyResponse {
	return ConsistencyResponse{
		Vault:             report.Vault,
		TotalStakedAmount: report.TotalStakedAmount,
		StakedSum:         report.StakedSum,
		StakeRecords:      report.StakeRecords,
		CustodyBalance:    report.CustodyBalance,
		Consistent:        report.Consistent(),
	}
}

func (h *Handler) createStakeRecord(w http.ResponseWriter, r *http.Request) *types.Error {
	var req createStakeRecordRequest
	if err := parseJSON(r.Body, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	record, err := h.service.CreateStakeRecord(r.Context(), req.Participant, req.Vault, req.Signature, h.now())
	if err != nil {
		return err
	}

	writeJSON(r, w, http.StatusCreated, stakeRecordResponse(record))
	return nil
}

func (h *Handler) getStakeRecord(w http.ResponseWriter, r *http.Request) *types.Error {
	details, err := h.service.GetStakeRecord(r.Context(), chi.URLParam(r, "participant"), h.now())
	if err != nil {
		return err
	}

	resp := stakeRecordResponse(details.Record)
	resp.Address = details.Address
	resp.State = details.State.String()
	resp.PendingPoints = details.PendingPoints.String()
	resp.PointsAt = details.PointsAt.String()
	resp.At = details.At
	writeJSON(r, w, http.StatusOK, resp)
	return nil
}

func (h *Handler) stake(w http.ResponseWriter, r *http.Request) *types.Error {
	var req amountRequest
	if err := parseJSON(r.Body, &req); err != nil {
		return err
	}

	amount, err := req.amount()
	if err != nil {
		return err
	}

	result, err := h.service.Stake(r.Context(), chi.URLParam(r, "participant"), amount, req.Signature, h.now())
	if err != nil {
		return err
	}

	writeJSON(r, w, http.StatusOK, StakeResponse{
		StakeRecord: stakeRecordResponse(result.Record),
		VaultTotal:  result.VaultTotal,
	})
	return nil
}

func (h *Handler) unstake(w http.ResponseWriter, r *http.Request) *types.Error {
	var req amountRequest
	if err := parseJSON(r.Body, &req); err != nil {
		return err
	}

	amount, err := req.amount()
	if err != nil {
		return err
	}

	result, err := h.service.Unstake(r.Context(), chi.URLParam(r, "participant"), amount, req.Signature, h.now())
	if err != nil {
		return err
	}

	writeJSON(r, w, http.StatusOK, StakeResponse{
		StakeRecord: stakeRecordResponse(result.Record),
		VaultTotal:  result.VaultTotal,
	})
	return nil
}

func (h *Handler) claim(w http.ResponseWriter, r *http.Request) *types.Error {
	var req claimRequest
	if err := parseJSON(r.Body, &req); err != nil {
		return err
	}

	result, err := h.service.ClaimPoints(r.Context(), chi.URLParam(r, "participant"), req.Signature, h.now())
	if err != nil {
		return err
	}

	writeJSON(r, w, http.StatusOK, ClaimResponse{
		Participant: result.Participant,
		Points:      result.Points.String(),
		ClaimedAt:   result.ClaimedAt,
		ClaimID:     result.ClaimID,
	})
	return nil
}

func (h *Handler) healthcheck(w http.ResponseWriter, r *http.Request) *types.Error {
	if err := h.service.Ping(r.Context()); err != nil {
		return types.NewErrorWithMsg(http.StatusServiceUnavailable, types.InternalServiceError, err.Error())
	}

	writeJSON(r, w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}
