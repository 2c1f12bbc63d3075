// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/vechain/stakeledger/metrics"

var (
	metricOperations       = metrics.LazyLoadCounterVec("staking_operations_count", []string{"op", "result"})
	metricCurrentEpoch     = metrics.LazyLoadGauge("staking_current_epoch")
	metricPoolsToFinalize  = metrics.LazyLoadGauge("staking_pools_to_finalize")
	metricFeesCredited     = metrics.LazyLoadCounter("staking_fees_credited_count")
	metricFinalizeDuration = metrics.LazyLoadHistogram("staking_finalize_duration_ms", metrics.BucketMillis)
)

func observeOperation(op string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": result})
}
