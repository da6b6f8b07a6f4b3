package workout

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidPace = errors.New("invalid pace")

// PaceToSpeed converts a "m:ss" per kilometer pace into meters per second.
func PaceToSpeed(pace string) (float64, error) {
	seconds, err := parsePace(pace)
	if err != nil {
		return 0, err
	}
	return 1000 / seconds, nil
}

// SpeedToPace formats meters per second as a "m:ss" per kilometer pace.
func SpeedToPace(speed float64) string {
	if speed <= 0 {
		return "-"
	}
	total := int(math.Round(1000 / speed))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// PaceTarget builds a pace target from the slow and the fast end of the range.
func PaceTarget(slowest, fastest string) (Target, error) {
	low, err := PaceToSpeed(slowest)
	if err != nil {
		return Target{}, err
	}
	high, err := PaceToSpeed(fastest)
	if err != nil {
		return Target{}, err
	}
	if low > high {
		low, high = high, low
	}
	return Target{Kind: TargetPace, Low: roundSpeed(low), High: roundSpeed(high)}, nil
}

func parsePace(pace string) (float64, error) {
	minutesPart, secondsPart, found := strings.Cut(strings.TrimSpace(pace), ":")
	if !found {
		return 0, fmt.Errorf("%w: %q, expected m:ss", ErrInvalidPace, pace)
	}

	minutes, err := strconv.Atoi(minutesPart)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("%w: %q, bad minutes", ErrInvalidPace, pace)
	}
	seconds, err := strconv.Atoi(secondsPart)
	if err != nil || seconds < 0 || seconds > 59 || len(secondsPart) != 2 {
		return 0, fmt.Errorf("%w: %q, bad seconds", ErrInvalidPace, pace)
	}

	total := float64(minutes*60 + seconds)
	if total == 0 {
		return 0, fmt.Errorf("%w: %q, pace must be positive", ErrInvalidPace, pace)
	}
	return total, nil
}

func roundSpeed(speed float64) float64 {
	return math.Round(speed*1000) / 1000
}
