package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-ledger/internal/auth"
	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/db"
	"github.com/babylonlabs-io/staking-ledger/internal/observability/tracing"
	"github.com/babylonlabs-io/staking-ledger/internal/services"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
	"github.com/babylonlabs-io/staking-ledger/testutil"
)

type testServer struct {
	*httptest.Server
	clock atomic.Int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{Auth: config.AuthConfig{Mode: config.AuthModeTrusted}}
	require.NoError(t, cfg.Ledger.Validate())
	require.NoError(t, cfg.Poller.Validate())

	authorizer, err := auth.New(cfg.Auth)
	require.NoError(t, err)
	service, err := services.NewService(cfg, db.NewMemoryDatabase(), nil, authorizer, nil)
	require.NoError(t, err)

	ts := &testServer{}
	h := NewHandler(service)
	h.now = ts.clock.Load
	ts.Server = httptest.NewServer(NewRouter(h))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, out any) *http.Response {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, ts.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func newIdentity(t *testing.T) string {
	t.Helper()
	_, identity := testutil.RandomIdentity(t)
	return identity
}

func TestLedgerAPI(t *testing.T) {
	ts := newTestServer(t)
	vault := newIdentity(t)
	participant := newIdentity(t)

	var vaultResp VaultResponse
	resp := ts.do(t, http.MethodPost, "/v1/vaults", map[string]string{"authority": vault}, &vaultResp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, vault, vaultResp.Authority)

	var recordResp StakeRecordResponse
	resp = ts.do(t, http.MethodPost, "/v1/stakers", map[string]string{"participant": participant, "vault": vault}, &recordResp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "0.000000000000000000", recordResp.TotalPoints)

	var stakeResp StakeResponse
	resp = ts.do(t, http.MethodPost, "/v1/stakers/"+participant+"/stake", map[string]string{"amount": "2000000000"}, &stakeResp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint64(2_000_000_000), stakeResp.VaultTotal)

	ts.clock.Store(100)
	resp = ts.do(t, http.MethodPost, "/v1/stakers/"+participant+"/unstake", map[string]string{"amount": "1000000000"}, &stakeResp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "200.000000000000000000", stakeResp.StakeRecord.TotalPoints)
	assert.Equal(t, uint64(1_000_000_000), stakeResp.VaultTotal)

	ts.clock.Store(150)
	resp = ts.do(t, http.MethodGet, "/v1/stakers/"+participant, nil, &recordResp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "50.000000000000000000", recordResp.PendingPoints)
	assert.Equal(t, "250.000000000000000000", recordResp.PointsAt)
	assert.NotEmpty(t, recordResp.Address)

	var claimResp ClaimResponse
	resp = ts.do(t, http.MethodPost, "/v1/stakers/"+strings.ToUpper(participant)+"/claim", map[string]string{}, &claimResp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, participant, claimResp.Participant)
	assert.Equal(t, "250.000000000000000000", claimResp.Points)
	assert.Equal(t, int64(150), claimResp.ClaimedAt)
	assert.Equal(t, participant+":150", claimResp.ClaimID)
	assert.Equal(t, 0, recordResp.PendingClaims)

	var consistency ConsistencyResponse
	resp = ts.do(t, http.MethodGet, "/v1/vaults/"+vault+"/consistency", nil, &consistency)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, consistency.Consistent)
	assert.Equal(t, uint64(1_000_000_000), consistency.StakedSum)
}

func TestLedgerAPIErrors(t *testing.T) {
	ts := newTestServer(t)
	vault := newIdentity(t)
	participant := newIdentity(t)

	ts.do(t, http.MethodPost, "/v1/vaults", map[string]string{"authority": vault}, nil)
	ts.do(t, http.MethodPost, "/v1/stakers", map[string]string{"participant": participant, "vault": vault}, nil)

	testCases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   types.ErrorCode
	}{
		{"duplicate vault", http.MethodPost, "/v1/vaults", map[string]string{"authority": vault}, http.StatusConflict, types.AlreadyExists},
		{"unknown vault", http.MethodGet, "/v1/vaults/" + newIdentity(t), nil, http.StatusNotFound, types.NotFound},
		{"unknown staker", http.MethodPost, "/v1/stakers/" + newIdentity(t) + "/stake", map[string]string{"amount": "1"}, http.StatusNotFound, types.NotFound},
		{"zero amount", http.MethodPost, "/v1/stakers/" + participant + "/stake", map[string]string{"amount": "0"}, http.StatusBadRequest, types.InvalidAmount},
		{"negative amount", http.MethodPost, "/v1/stakers/" + participant + "/stake", map[string]string{"amount": "-5"}, http.StatusBadRequest, types.InvalidAmount},
		{"non-numeric amount", http.MethodPost, "/v1/stakers/" + participant + "/unstake", map[string]string{"amount": "ten"}, http.StatusBadRequest, types.InvalidAmount},
		{"amount too large", http.MethodPost, "/v1/stakers/" + participant + "/stake", map[string]string{"amount": "18446744073709551616"}, http.StatusUnprocessableEntity, types.ArithmeticOverflow},
		{"missing amount", http.MethodPost, "/v1/stakers/" + participant + "/stake", map[string]string{}, http.StatusBadRequest, types.ValidationError},
		{"missing authority", http.MethodPost, "/v1/vaults", map[string]string{}, http.StatusBadRequest, types.ValidationError},
		{"missing vault", http.MethodPost, "/v1/stakers", map[string]string{"participant": newIdentity(t)}, http.StatusBadRequest, types.ValidationError},
		{"over unstake", http.MethodPost, "/v1/stakers/" + participant + "/unstake", map[string]string{"amount": "1"}, http.StatusBadRequest, types.InsufficientBalance},
		{"unknown field", http.MethodPost, "/v1/stakers/" + participant + "/stake", map[string]string{"amount": "1", "memo": "x"}, http.StatusBadRequest, types.BadRequest},
		{"malformed identity", http.MethodGet, "/v1/stakers/zz", nil, http.StatusBadRequest, types.BadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var errResp errorResponse
			resp := ts.do(t, tc.method, tc.path, tc.body, &errResp)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code.String(), errResp.ErrorCode)
			assert.NotEmpty(t, errResp.Message)
		})
	}
}

func TestTraceIDHeader(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/healthcheck", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(tracing.TraceIDHeader))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthcheck", nil)
	require.NoError(t, err)
	req.Header.Set(tracing.TraceIDHeader, "trace-1")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "trace-1", resp.Header.Get(tracing.TraceIDHeader))
}
