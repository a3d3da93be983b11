package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// CollectionWindow is recomputed from chain state on every invocation.
type CollectionWindow struct {
	BlockInterval        uint64
	LastTransferredBlock uint64
	CurrentBlock         uint64
}

// BlocksUntilNext returns how many blocks remain until the fund manager
// interval elapses. The result is within [1, BlockInterval], or 0 when the
// interval is not configured.
func (w CollectionWindow) BlocksUntilNext() uint64 {
	if w.BlockInterval == 0 {
		return 0
	}
	interval := new(big.Int).SetUint64(w.BlockInterval)
	elapsed := new(big.Int).SetUint64(w.CurrentBlock)
	elapsed.Sub(elapsed, new(big.Int).Mul(new(big.Int).SetUint64(w.LastTransferredBlock), interval))
	// Mod is euclidean, the remainder is never negative.
	rem := new(big.Int).Mod(elapsed, interval)
	return new(big.Int).Sub(interval, rem).Uint64()
}

// BridgeTransferRecord tracks one source chain transfer until the matching
// destination chain event is found or the deadline passes.
type BridgeTransferRecord struct {
	SourceBlock uint64
	// SearchFromBlock is the destination chain head seen right before the
	// transfer was submitted.
	SearchFromBlock uint64
	ExpectedValue   *big.Int
	Recipient       common.Address
	Deadline        time.Time
}

// DayBoundary maps a UBI day to the block at which it was calculated.
type DayBoundary struct {
	Day         uint64
	BlockNumber uint64
}

type EpochWindow struct {
	CurrentDay      uint64
	MaxInactiveDays uint64
	SearchStart     *DayBoundary
	SearchEnd       *DayBoundary
}

// StartDay is the day whose claimers are candidates for fishing. It is not
// defined before maxInactiveDays have passed.
func (w *EpochWindow) StartDay() (uint64, bool) {
	if w.CurrentDay < w.MaxInactiveDays {
		return 0, false
	}
	return w.CurrentDay - w.MaxInactiveDays, true
}

func (w *EpochWindow) Defined() bool {
	return w != nil && w.SearchStart != nil && w.SearchEnd != nil
}

type ClaimCandidate struct {
	Address    common.Address
	ClaimBlock uint64
}

type ReclamationReport struct {
	// Fishers is the set of signers that submitted at least one successful
	// chunk, in order of their first success.
	Fishers    []common.Address
	Fished     int
	Chunks     int
	Passes     int
	Unresolved []common.Address
}

func (r *ReclamationReport) Converged() bool {
	return len(r.Unresolved) == 0
}
