// params.go - Pool parameters and burn arithmetic.

package pool

import "fmt"

// Default on-chain parameters.
const (
	DefaultEpochDurationSlots     = 3_024_000
	DefaultExpirySlots            = 38_880_000
	DefaultFinalizationDelaySlots = 216_000
	DefaultBurnRateBps            = 10
	DefaultWarningEpochs          = 2
)

// Params holds the pool schedule a wallet session operates against.
type Params struct {
	EpochDurationSlots     uint64 `json:"epoch_duration_slots"`
	ExpirySlots            uint64 `json:"expiry_slots"`
	FinalizationDelaySlots uint64 `json:"finalization_delay_slots"`
	BurnRateBps            uint64 `json:"burn_rate_bps"`
	WarningEpochs          uint64 `json:"warning_epochs"`
}

// DefaultParams returns the pool defaults.
func DefaultParams() Params {
	return Params{
		EpochDurationSlots:     DefaultEpochDurationSlots,
		ExpirySlots:            DefaultExpirySlots,
		FinalizationDelaySlots: DefaultFinalizationDelaySlots,
		BurnRateBps:            DefaultBurnRateBps,
		WarningEpochs:          DefaultWarningEpochs,
	}
}

// Validate checks the parameter set.
func (p Params) Validate() error {
	if p.EpochDurationSlots == 0 {
		return fmt.Errorf("epoch_duration_slots must be positive")
	}
	if p.ExpirySlots < p.EpochDurationSlots {
		return fmt.Errorf("expiry_slots must cover at least one epoch")
	}
	if p.BurnRateBps > 10_000 {
		return fmt.Errorf("burn_rate_bps must not exceed 10000")
	}
	return nil
}

// LifetimeEpochs returns how many whole epochs a note stays spendable after
// the epoch it was confirmed in.
func (p Params) LifetimeEpochs() uint64 {
	return p.ExpirySlots / p.EpochDurationSlots
}

// CalculateBurn splits amount into the burned share and the net remainder:
// burn = floor(amount * bps / 10_000).
func CalculateBurn(amount, bps uint64) (burn, net uint64) {
	burn = amount * bps / 10_000
	return burn, amount - burn
}

// CalculateGrossAmount returns the smallest gross amount whose net, after the
// burn, covers the requested net.
func CalculateGrossAmount(net, bps uint64) uint64 {
	if bps >= 10_000 {
		return 0
	}
	gross := net * 10_000 / (10_000 - bps)
	if _, got := CalculateBurn(gross, bps); got < net {
		gross++
	}
	// The burn is floored, so a smaller gross can still cover net.
	for gross > 0 {
		if _, prev := CalculateBurn(gross-1, bps); prev < net {
			break
		}
		gross--
	}
	return gross
}
