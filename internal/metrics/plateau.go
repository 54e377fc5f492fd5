package metrics

// DetectLastChange finds the most recent complete capacity transition.
//
// Walking from newest to oldest, equal consecutive capacities collapse into
// one segment. The result is the first sample of the second-newest segment
// and the first sample of the newest segment. A segment only counts once an
// older, different value bounds it, so the oldest segment in the history
// never qualifies: with A 1, B 1, C 2, D 2, E 2, F 3, G 3 the result is
// (C, F), and with only two segments it is (nil, nil).
func DetectLastChange(history []CapacitySample) (start, last *CapacitySample) {
	if len(history) < 2 {
		return nil, nil
	}

	var changesStart, changesLast *CapacitySample
	for i := len(history) - 1; i >= 0; i-- {
		item := &history[i]

		if changesLast == nil || changesLast.Capacity == item.Capacity {
			changesLast = item
			continue
		}

		if changesStart == nil || changesStart.Capacity == item.Capacity {
			changesStart = item
			continue
		}

		s, l := *changesStart, *changesLast
		return &s, &l
	}

	return nil, nil
}

// ChargeEstimate is the charge or discharge rate derived from the capacity history.
type ChargeEstimate struct {
	// MinuteRate is capacity units per minute; positive while charging.
	MinuteRate float64
	// EstimateMinutes is the time to full when charging, or to empty when discharging.
	EstimateMinutes float64
}

// Charging reports whether capacity is rising.
func (e ChargeEstimate) Charging() bool {
	return e.MinuteRate > 0
}

// EstimateCharge derives the rate from the last plateau change. It returns
// false when the battery is neither charging nor discharging measurably, or
// when no complete change has been observed yet.
func EstimateCharge(b *SmartBattery) (ChargeEstimate, bool) {
	if b == nil {
		return ChargeEstimate{}, false
	}
	if !b.IsCharging && b.ExternalConnected {
		return ChargeEstimate{}, false
	}

	start, last := DetectLastChange(b.CapacityHistory)
	if start == nil || last == nil {
		return ChargeEstimate{}, false
	}

	seconds := last.At.Sub(start.At).Seconds()
	if seconds <= 0 {
		return ChargeEstimate{}, false
	}

	est := ChargeEstimate{
		MinuteRate: float64(last.Capacity-start.Capacity) / seconds * 60,
	}
	switch {
	case est.MinuteRate > 0:
		est.EstimateMinutes = float64(b.RawMaxCapacity-b.RawCurrentCapacity) / est.MinuteRate
	case est.MinuteRate < 0:
		est.EstimateMinutes = -float64(b.RawCurrentCapacity) / est.MinuteRate
	}
	return est, true
}
