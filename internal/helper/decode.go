// sentinel
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package helper

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Decode decodes the loosely typed input (e.g. a yaml map) into T.
// Durations may be given as strings ("5s"), slices as comma separated strings.
func Decode[T any](input any) (T, error) {
	var result T
	config := &mapstructure.DecoderConfig{
		Metadata:         nil,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &result,
		DecodeHook:       DecodeHook(),
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return result, err
	}

	if err := decoder.Decode(input); err != nil {
		return result, err
	}

	return result, nil
}

// DecodeHook converts strings into durations, comma separated slices
// and comma separated key=value maps
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		StringToStringMapHookFunc(","),
	)
}

// StringToStringMapHookFunc decodes "k1=v1<sep>k2=v2" into a map[string]string.
// Surrounding brackets as printed by pflag are accepted.
func StringToStringMapHookFunc(sep string) mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Map ||
			to.Key().Kind() != reflect.String || to.Elem().Kind() != reflect.String {
			return data, nil
		}

		raw := strings.TrimSpace(reflect.ValueOf(data).String())
		raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
		result := map[string]string{}
		if raw == "" {
			return result, nil
		}
		for _, pair := range strings.Split(raw, sep) {
			key, value, ok := strings.Cut(pair, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				return nil, fmt.Errorf("invalid key=value pair %q", pair)
			}
			result[key] = strings.TrimSpace(value)
		}
		return result, nil
	}
}
