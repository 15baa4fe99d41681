package mqtt

import (
	"math"
	"strconv"
	"strings"
)

// ValueMarshaler converts a T into an MQTT payload.
type ValueMarshaler[T any] func(v T) ([]byte, error)

// ValueUnmarshaler converts an MQTT payload into a T.
type ValueUnmarshaler[T any] func([]byte) (T, error)

var (
	StringMarshaler ValueMarshaler[string] = func(v string) ([]byte, error) {
		return []byte(v), nil
	}
	StringUnmarshaler ValueUnmarshaler[string] = func(bytes []byte) (string, error) {
		return string(bytes), nil
	}

	UintMarshaler ValueMarshaler[uint] = func(v uint) ([]byte, error) {
		return strconv.AppendUint(nil, uint64(v), 10), nil
	}
	// UintUnmarshaler accepts whole numbers with a trailing fraction ("10.0"), which is how Home Assistant number
	// entities send integral values.
	UintUnmarshaler ValueUnmarshaler[uint] = func(bytes []byte) (uint, error) {
		s := strings.TrimSpace(string(bytes))
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			return uint(v), nil
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		if f < 0 || f != math.Trunc(f) {
			return 0, &strconv.NumError{Func: "ParseUint", Num: s, Err: strconv.ErrSyntax}
		}

		return uint(f), nil
	}
)
