package cim

import (
	"errors"
	"fmt"

	"braces.dev/errtrace"
)

// DateTime represents a CIM datetime value, which is either an absolute
// timestamp or a time interval (DSP0004 §2.3.1). Both forms share the
// same 25-character wire encoding; which one a value holds is
// distinguished by the IsInterval flag, exactly as the colon-vs-sign
// character at offset 21 distinguishes them on the wire.
type DateTime struct {
	IsInterval bool

	// Absolute timestamp fields (IsInterval == false).
	Year, Month, Day     int
	Hour, Minute, Second int
	Microsecond          int
	UTCOffsetMinutes     int // signed, minutes east of UTC

	// Interval fields (IsInterval == true).
	Days, IHour, IMinute, ISecond, IMicrosecond int
}

// Type implements Value.
func (DateTime) Type() Type { return TypeDateTime }

// Render returns the 25-character DMTF datetime wire form.
func (dt DateTime) Render() string {
	if dt.IsInterval {
		return fmt.Sprintf("%08d%02d%02d%02d.%06d:000",
			dt.Days, dt.IHour, dt.IMinute, dt.ISecond, dt.IMicrosecond)
	}
	sign := byte('+')
	off := dt.UTCOffsetMinutes
	if off < 0 {
		sign = '-'
		off = -off
	}
	return fmt.Sprintf("%04d%02d%02d%02d%02d%02d.%06d%c%03d",
		dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Microsecond, sign, off)
}

// Equal reports whether v represents the same datetime value.
func (dt DateTime) Equal(v Value) bool {
	other, ok := v.(DateTime)
	if !ok {
		return false
	}
	return dt == other
}

const dateTimeWireLen = 25

// ParseDateTime parses the 25-character DMTF datetime wire form.
func ParseDateTime(s string) (DateTime, error) {
	if len(s) != dateTimeWireLen {
		return DateTime{}, errtrace.Wrap(fmt.Errorf("%w: datetime must be %d characters, got %d", errMalformedDateTime, dateTimeWireLen, len(s)))
	}
	if s[14] != '.' {
		return DateTime{}, errtrace.Wrap(fmt.Errorf("%w: expected '.' at offset 14", errMalformedDateTime))
	}
	marker := s[21]
	var dt DateTime
	switch marker {
	case ':':
		dt.IsInterval = true
		days, err := atoiN(s[0:8])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		hh, err := atoiN(s[8:10])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		mm, err := atoiN(s[10:12])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		ss, err := atoiN(s[12:14])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		us, err := atoiN(s[15:21])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		if s[22:25] != "000" {
			return DateTime{}, errtrace.Wrap(fmt.Errorf("%w: interval suffix must be ':000'", errMalformedDateTime))
		}
		dt.Days, dt.IHour, dt.IMinute, dt.ISecond, dt.IMicrosecond = days, hh, mm, ss, us
	case '+', '-':
		year, err := atoiN(s[0:4])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		month, err := atoiN(s[4:6])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		day, err := atoiN(s[6:8])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		hh, err := atoiN(s[8:10])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		mm, err := atoiN(s[10:12])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		ss, err := atoiN(s[12:14])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		us, err := atoiN(s[15:21])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		off, err := atoiN(s[22:25])
		if err != nil {
			return DateTime{}, errtrace.Wrap(err)
		}
		if marker == '-' {
			off = -off
		}
		dt.Year, dt.Month, dt.Day = year, month, day
		dt.Hour, dt.Minute, dt.Second, dt.Microsecond = hh, mm, ss, us
		dt.UTCOffsetMinutes = off
	default:
		return DateTime{}, errtrace.Wrap(fmt.Errorf("%w: unrecognized marker %q at offset 21", errMalformedDateTime, marker))
	}
	return dt, nil
}

func atoiN(s string) (int, error) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, errtrace.Wrap(fmt.Errorf("%w: %q is not numeric", errMalformedDateTime, s))
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

var errMalformedDateTime = errors.New("malformed CIM datetime")
