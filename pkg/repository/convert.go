package repository

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// convertTo converts a scalar read from the database to R.
// A nil value yields the zero R.
func convertTo[R any](value any) (R, error) {
	var out R
	if value == nil {
		return out, nil
	}
	if v, ok := value.(R); ok {
		return v, nil
	}

	value = normalizeScanned(value)
	var err error
	switch p := any(&out).(type) {
	case *string:
		*p, err = cast.ToStringE(value)
	case *int:
		*p, err = cast.ToIntE(value)
	case *int8:
		*p, err = cast.ToInt8E(value)
	case *int16:
		*p, err = cast.ToInt16E(value)
	case *int32:
		*p, err = cast.ToInt32E(value)
	case *int64:
		*p, err = cast.ToInt64E(value)
	case *uint:
		*p, err = cast.ToUintE(value)
	case *uint8:
		*p, err = cast.ToUint8E(value)
	case *uint16:
		*p, err = cast.ToUint16E(value)
	case *uint32:
		*p, err = cast.ToUint32E(value)
	case *uint64:
		*p, err = cast.ToUint64E(value)
	case *float32:
		*p, err = cast.ToFloat32E(value)
	case *float64:
		*p, err = cast.ToFloat64E(value)
	case *bool:
		*p, err = cast.ToBoolE(value)
	case *time.Time:
		*p, err = cast.ToTimeE(value)
	case *any:
		*p = value
	default:
		err = fmt.Errorf("unsupported conversion target %T", out)
	}
	if err != nil {
		return out, fmt.Errorf("convert %T to %T: %w", value, out, err)
	}
	return out, nil
}
