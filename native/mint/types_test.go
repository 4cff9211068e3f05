package mint

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestValidateSchedule(t *testing.T) {
	cases := []struct {
		name   string
		stages []Stage
		want   error
	}{
		{name: "empty", stages: nil},
		{name: "single", stages: []Stage{{StartUnix: 0, EndUnix: 1}}},
		{
			name:   "inverted window",
			stages: []Stage{{StartUnix: 10, EndUnix: 10}},
			want:   ErrInvalidStartAndEndTimestamp,
		},
		{
			name: "gap too small",
			stages: []Stage{
				{StartUnix: 0, EndUnix: 1},
				{StartUnix: 60, EndUnix: 62},
			},
			want: ErrInsufficientStageTimeGap,
		},
		{
			name: "gap exactly met",
			stages: []Stage{
				{StartUnix: 0, EndUnix: 1},
				{StartUnix: 61, EndUnix: 62},
			},
		},
		{
			name: "later pair violates",
			stages: []Stage{
				{StartUnix: 0, EndUnix: 1},
				{StartUnix: 61, EndUnix: 100},
				{StartUnix: 159, EndUnix: 200},
			},
			want: ErrInsufficientStageTimeGap,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSchedule(tc.stages)
			if tc.want == nil && err != nil {
				t.Fatalf("expected valid schedule, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestStageCloneIsDeep(t *testing.T) {
	original := Stage{Price: uint256.NewInt(5), StartUnix: 0, EndUnix: 1}
	clone := original.Clone()
	clone.Price.SetUint64(99)
	if original.Price.Uint64() != 5 {
		t.Fatalf("clone aliased the price, original now %d", original.Price.Uint64())
	}
}

func TestStageContains(t *testing.T) {
	s := Stage{StartUnix: 10, EndUnix: 20}
	for ts, want := range map[uint64]bool{9: false, 10: true, 15: true, 20: true, 21: false} {
		if s.contains(ts) != want {
			t.Fatalf("contains(%d) = %v, want %v", ts, !want, want)
		}
	}
}
