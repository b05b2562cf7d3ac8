package configuration

import (
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// decodeHook combines the hooks needed to unmarshal the configuration.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		bareSecondsHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// bareSecondsHookFunc returns a mapstructure decode hook that interprets a
// plain number as a duration in seconds. The container interface documents
// CHECK_INTERVAL=15, not CHECK_INTERVAL=15s, so both forms have to decode.
func bareSecondsHookFunc() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != durationType {
			return data, nil
		}

		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		case string:
			if seconds, err := strconv.Atoi(v); err == nil {
				return time.Duration(seconds) * time.Second, nil
			}
		}

		return data, nil
	}
}
