package sketch

import (
	"strconv"
	"strings"

	"github.com/matzehuels/graphite/pkg/errors"
)

// Intensity controls the Gaussian kernel size of the sketch filter.
// Valid values lie in [MinIntensity, MaxIntensity].
type Intensity int

const (
	// MinIntensity is the smallest intensity (kernel side 1, no blur).
	MinIntensity Intensity = 1

	// MaxIntensity is the largest intensity (kernel side 51).
	MaxIntensity Intensity = 51

	// DefaultIntensity is the intensity used when none is configured.
	DefaultIntensity Intensity = 21
)

// Clamp returns i limited to [MinIntensity, MaxIntensity].
func (i Intensity) Clamp() Intensity {
	if i < MinIntensity {
		return MinIntensity
	}
	if i > MaxIntensity {
		return MaxIntensity
	}
	return i
}

// KernelSize returns the effective blur kernel side for i.
// The low bit is forced so the kernel is always odd: 20 → 21, 21 → 21.
func (i Intensity) KernelSize() int {
	return int(i.Clamp()) | 1
}

// Validate reports an INVALID_INTENSITY error when i is out of range.
func (i Intensity) Validate() error {
	if i < MinIntensity || i > MaxIntensity {
		return errors.New(errors.ErrCodeInvalidIntensity,
			"intensity %d out of range (must be %d-%d)", int(i), int(MinIntensity), int(MaxIntensity))
	}
	return nil
}

// String returns the decimal representation of i.
func (i Intensity) String() string {
	return strconv.Itoa(int(i))
}

// ParseIntensity parses a decimal intensity and validates its range.
func ParseIntensity(s string) (Intensity, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidIntensity, err, "invalid intensity %q", s)
	}
	i := Intensity(n)
	if err := i.Validate(); err != nil {
		return 0, err
	}
	return i, nil
}
