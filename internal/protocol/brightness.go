package protocol

import "fmt"

// Brightness quantization. Each dialect accepts a different set of
// legal levels; the Quantize* functions round a requested 0..100 level
// to the nearest legal one, returning both the accepted level and, for
// SCS, the WHAT code that carries it on the wire.
//
// SCS dimmers only recognize nine absolute levels plus the legacy
// dim-to-20 quick command; level 100 is reported on receive under
// either WHAT code 9 or 10 depending on firmware generation, so
// DecodeSCSLevel accepts both while encoding always emits 10.
var scsLevelByWhat = map[string]int{
	"1":  20, // dim-to-20 (legacy quick command)
	"2":  30,
	"3":  50,
	"4":  40,
	"5":  60,
	"6":  70,
	"7":  80,
	"8":  90,
	"10": 100,
}

var scsWhatByLevel = map[int]string{}

func init() {
	for what, level := range scsLevelByWhat {
		// Prefer the lowest-numbered code when two map to the same
		// level (there is none today, but keeps this deterministic).
		if existing, ok := scsWhatByLevel[level]; !ok || what < existing {
			scsWhatByLevel[level] = what
		}
	}
}

// QuantizeSCSLevel rounds level to the nearest legal SCS step (0, the
// 9 absolute steps 20..100, or 20 via the dim-to-20 special) and
// returns the accepted level plus its WHAT code.
func QuantizeSCSLevel(level int) (accepted int, what string, err error) {
	if level < 0 || level > 100 {
		return 0, "", fmt.Errorf("%w: brightness level %d out of range 0..100", ErrInvalidAddress, level)
	}
	if level == 0 {
		return 0, "0", nil
	}
	best, bestDiff := 20, level-20
	if bestDiff < 0 {
		bestDiff = -bestDiff
	}
	for step := 20; step <= 100; step += 10 {
		diff := step - level
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = step, diff
		}
	}
	return best, scsWhatByLevel[best], nil
}

// QuantizeNitooLevel accepts any 0..100 integer percent unchanged.
func QuantizeNitooLevel(level int) (int, error) {
	if level < 0 || level > 100 {
		return 0, fmt.Errorf("%w: brightness level %d out of range 0..100", ErrInvalidAddress, level)
	}
	return level, nil
}

// QuantizeZigbeeLevel rounds level to the nearest multiple of 10.
func QuantizeZigbeeLevel(level int) (int, error) {
	if level < 0 || level > 100 {
		return 0, fmt.Errorf("%w: brightness level %d out of range 0..100", ErrInvalidAddress, level)
	}
	rounded := ((level + 5) / 10) * 10
	if rounded > 100 {
		rounded = 100
	}
	return rounded, nil
}

// DecodeSCSLevel maps a WHAT code back to its level, accepting both
// code "9" and code "10" as level 100 on receive.
func DecodeSCSLevel(what string) (int, bool) {
	if what == "9" {
		return 100, true
	}
	level, ok := scsLevelByWhat[what]
	return level, ok
}
