package luhn

import (
	"errors"
)

const (
	minPANLength = 12
	maxPANLength = 19
)

// Validate checks that a PAN is all numeric and of a plausible card length.
// It then performs the validation algorithm from the rightmost digit:
// 1. every second digit is doubled,
//    a doubled value above 9 has its digits summed, e.g. 16 becomes 7.
// 2. all digits are summed.
// 3. the PAN passes if the sum ends in zero.
func Validate(pan string) error {
	if len(pan) == 0 {
		return errors.New("pan is empty")
	}

	var sum int
	double := false
	for i := len(pan) - 1; i >= 0; i-- {
		c := pan[i]
		if c < '0' || c > '9' {
			return errors.New("pan contains non numeric or spaces")
		}

		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}

	if len(pan) < minPANLength || len(pan) > maxPANLength {
		return errors.New("pan length out of range")
	}

	if sum%10 != 0 {
		return errors.New("luhn validation failed")
	}

	return nil
}
