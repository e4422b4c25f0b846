package domain

import (
	"math"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func unitPtr(u WeightUnit) *WeightUnit { return &u }

func TestEffectiveWeightPounds(t *testing.T) {
	cases := []struct {
		name string
		sub  MetricSubmission
		want float64
	}{
		{
			name: "original pounds pass through",
			sub: MetricSubmission{
				Status:       StatusApproved,
				PickedWeight: floatPtr(12),
				WeightUnit:   WeightUnitPounds,
			},
			want: 12,
		},
		{
			name: "original kilograms convert",
			sub: MetricSubmission{
				Status:       StatusApproved,
				PickedWeight: floatPtr(10),
				WeightUnit:   WeightUnitKilograms,
			},
			want: 10 * KilogramsToPounds,
		},
		{
			name: "adjusted weight uses adjusted unit",
			sub: MetricSubmission{
				Status:             StatusAdjusted,
				PickedWeight:       floatPtr(10),
				WeightUnit:         WeightUnitPounds,
				AdjustedWeight:     floatPtr(4),
				AdjustedWeightUnit: unitPtr(WeightUnitKilograms),
			},
			want: 4 * KilogramsToPounds,
		},
		{
			name: "unit-only adjustment applies to original weight",
			sub: MetricSubmission{
				Status:             StatusAdjusted,
				PickedWeight:       floatPtr(10),
				WeightUnit:         WeightUnitKilograms,
				AdjustedWeightUnit: unitPtr(WeightUnitPounds),
			},
			want: 10,
		},
		{
			name: "adjusted weight without unit keeps original unit",
			sub: MetricSubmission{
				Status:         StatusAdjusted,
				PickedWeight:   floatPtr(10),
				WeightUnit:     WeightUnitKilograms,
				AdjustedWeight: floatPtr(5),
			},
			want: 5 * KilogramsToPounds,
		},
		{
			name: "adjusted unit ignored while pending",
			sub: MetricSubmission{
				Status:             StatusPending,
				PickedWeight:       floatPtr(10),
				WeightUnit:         WeightUnitKilograms,
				AdjustedWeightUnit: unitPtr(WeightUnitPounds),
			},
			want: 10 * KilogramsToPounds,
		},
		{
			name: "no weight is zero",
			sub:  MetricSubmission{Status: StatusApproved, WeightUnit: WeightUnitPounds},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.sub.EffectiveWeightPounds()
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %v pounds, got %v", tc.want, got)
			}
		})
	}
}
