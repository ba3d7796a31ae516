package pool

import "testing"

func TestBurnConservation(t *testing.T) {
	amounts := []uint64{0, 1, 999, 10_000, 123_456_789, 1_000_000_000}
	for _, amount := range amounts {
		for bps := uint64(0); bps <= 1000; bps += 37 {
			burn, net := CalculateBurn(amount, bps)
			if burn+net != amount {
				t.Errorf("CalculateBurn(%d, %d): burn %d + net %d != amount", amount, bps, burn, net)
			}
		}
	}
}

func TestCalculateGrossAmount(t *testing.T) {
	if got := CalculateGrossAmount(1_000_000_000, 10); got != 1_001_001_001 {
		t.Errorf("CalculateGrossAmount(1_000_000_000, 10) = %d, want 1_001_001_001", got)
	}
	// Gross must always net out to at least the requested amount.
	for _, net := range []uint64{1, 999, 1_000_000, 999_999_999} {
		for _, bps := range []uint64{0, 1, 10, 100, 1000} {
			gross := CalculateGrossAmount(net, bps)
			if _, gotNet := CalculateBurn(gross, bps); gotNet < net {
				t.Errorf("CalculateGrossAmount(%d, %d) = %d nets %d", net, bps, gross, gotNet)
			}
			if gross > 0 {
				if _, prevNet := CalculateBurn(gross-1, bps); prevNet >= net {
					t.Errorf("CalculateGrossAmount(%d, %d) = %d is not minimal", net, bps, gross)
				}
			}
		}
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	bad := DefaultParams()
	bad.EpochDurationSlots = 0
	if err := bad.Validate(); err == nil {
		t.Errorf("zero epoch duration should be rejected")
	}
	bad = DefaultParams()
	bad.BurnRateBps = 10_001
	if err := bad.Validate(); err == nil {
		t.Errorf("burn rate above 100%% should be rejected")
	}
}

func TestLifetimeEpochs(t *testing.T) {
	if got := DefaultParams().LifetimeEpochs(); got != 12 {
		t.Errorf("LifetimeEpochs() = %d, want 12", got)
	}
}
