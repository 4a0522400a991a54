package nn

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// Params holds layer hyperparameters as decoded from a net description.
type Params map[string]any

// Float returns the named parameter as float64, or def when absent.
// Integers and numeric strings are accepted.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "param %q", key)
		}
		return f, nil
	default:
		return 0, errors.Errorf("param %q: want a number, got %T", key, v)
	}
}

// unknownKeys returns the sorted parameter names not listed in known.
func (p Params) unknownKeys(known ...string) []string {
	var out []string
	for k := range p {
		found := false
		for _, want := range known {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
