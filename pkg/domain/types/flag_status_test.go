package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetupboard/pkg/domain/types"
)

func TestFlagStatus_IsValid(t *testing.T) {
	for _, s := range []types.FlagStatus{types.FlagStatusNotFlagged, types.FlagStatusFlagged, types.FlagStatusComplete} {
		gt.B(t, s.IsValid()).True()
	}
	gt.B(t, types.FlagStatus("pending").IsValid()).False()
	gt.B(t, types.FlagStatus("").IsValid()).False()
}

func TestFlagStatus_Normalize(t *testing.T) {
	gt.Value(t, types.FlagStatus("").Normalize()).Equal(types.FlagStatusNotFlagged)
	gt.Value(t, types.FlagStatusFlagged.Normalize()).Equal(types.FlagStatusFlagged)
}

func TestParseFlagStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.FlagStatus
		wantErr bool
	}{
		{name: "flagged", input: "flagged", want: types.FlagStatusFlagged},
		{name: "complete", input: "complete", want: types.FlagStatusComplete},
		{name: "wrong case", input: "Flagged", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseFlagStatus(tt.input)
			if tt.wantErr {
				gt.Error(t, err).Is(types.ErrInvalidFlagStatus)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := types.ParseFailurePolicy("")
	gt.NoError(t, err)
	gt.Value(t, p).Equal(types.FailurePolicyFailFast)

	p, err = types.ParseFailurePolicy("skip")
	gt.NoError(t, err)
	gt.Value(t, p).Equal(types.FailurePolicySkip)

	_, err = types.ParseFailurePolicy("ignore")
	gt.Error(t, err).Is(types.ErrInvalidFailurePolicy)
}
