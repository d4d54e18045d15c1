package units

import (
	"math"
	"testing"
)

func TestRadiansDegreesRoundTrip(t *testing.T) {
	t.Parallel()

	for _, deg := range []float64{-180, -90, 0, 30, 90, 180, 360} {
		got := Degrees(Radians(deg))
		if math.Abs(got-deg) > 1e-12 {
			t.Errorf("Degrees(Radians(%v)) = %v", deg, got)
		}
	}
	if got := Radians(180); math.Abs(got-math.Pi) > 1e-15 {
		t.Errorf("Radians(180) = %v, want pi", got)
	}
}

func TestValidZenith(t *testing.T) {
	t.Parallel()

	tests := []struct {
		deg  float64
		want bool
	}{
		{0, true},
		{90, true},
		{180, true},
		{-0.1, false},
		{180.1, false},
		{math.NaN(), false},
	}
	for _, tt := range tests {
		if got := ValidZenith(tt.deg); got != tt.want {
			t.Errorf("ValidZenith(%v) = %v, want %v", tt.deg, got, tt.want)
		}
	}
}

func TestValidLatitude(t *testing.T) {
	t.Parallel()

	if !ValidLatitude(-90) || !ValidLatitude(90) || !ValidLatitude(0) {
		t.Error("in-range latitude rejected")
	}
	if ValidLatitude(90.5) || ValidLatitude(-91) || ValidLatitude(math.NaN()) {
		t.Error("out-of-range latitude accepted")
	}
}

func TestWrapAzimuthDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{90, 90},
		{180, 180},
		{270, 90},
		{360, 0},
		{-90, 90},
		{-270, 90},
		{540, 180},
	}
	for _, tt := range tests {
		if got := WrapAzimuthDelta(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("WrapAzimuthDelta(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
