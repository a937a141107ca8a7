package custodyclient

import (
	"context"
	"time"

	"github.com/babylonlabs-io/staking-ledger/internal/observability/metrics"
)

type custodyClientWithMetrics struct {
	custody CustodyInterface
}

func NewCustodyClientWithMetrics(custody CustodyInterface) *custodyClientWithMetrics {
	return &custodyClientWithMetrics{custody: custody}
}

func (c *custodyClientWithMetrics) GetVaultBalance(ctx context.Context, authority string) (uint64, error) {
	return runCustodyClientMethodWithMetrics("GetVaultBalance", func() (uint64, error) {
		return c.custody.GetVaultBalance(ctx, authority)
	})
}

func (c *custodyClientWithMetrics) Release(ctx context.Context, req *ReleaseRequest) error {
	_, err := runCustodyClientMethodWithMetrics("Release", func() (struct{}, error) {
		return struct{}{}, c.custody.Release(ctx, req)
	})
	return err
}

func runCustodyClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordCustodyClientLatency(duration, method, err != nil)
	return v, err
}
