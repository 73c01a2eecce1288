package pricing

import (
	"encoding/json"
	"testing"
)

func TestNumberDecodesMalformedInputToZero(t *testing.T) {
	cases := map[string]float64{
		`12.5`:     12.5,
		`"12.5"`:   12.5,
		`" 7 "`:    7,
		`null`:     0,
		`""`:       0,
		`"abc"`:    0,
		`true`:     0,
		`{}`:       0,
		`[1]`:      0,
		`"-3.25"`:  -3.25,
		`0`:        0,
		`"1e2"`:    100,
		`"12,5"`:   0,
		`"Infini"`: 0,
	}
	for raw, want := range cases {
		var n Number
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			t.Fatalf("unmarshal %s: unexpected error %v", raw, err)
		}
		if got := n.Float64(); got != want {
			t.Fatalf("unmarshal %s: expected %v, got %v", raw, want, got)
		}
	}
}

func TestRound2HalfUp(t *testing.T) {
	cases := map[float64]float64{
		0.125:   0.13,
		0.375:   0.38,
		-0.125:  -0.12,
		33.333:  33.33,
		-40:     -40,
		0:       0,
		999.999: 1000,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Fatalf("Round2(%v): expected %v, got %v", in, want, got)
		}
	}
}
