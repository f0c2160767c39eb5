package transform

import (
	"runtime"

	"github.com/mitchellh/mapstructure"

	"github.com/graphia/graphia/internal/condition"
	"github.com/graphia/graphia/internal/transformconfig"
)

// hardwareConcurrency bounds the worker pool used by parallel_for-style
// algorithms (Brandes betweenness) to the machine's available parallelism
// (spec §5, "fan out to a bounded thread pool of size
// hardware_concurrency").
func hardwareConcurrency() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// decodeParams decodes a transform config's withClause parameters (spec
// §4.3) into dst, a pointer to a struct whose fields carry `mapstructure`
// tags matching the parameter names. dst's fields should already hold
// their defaults: a parameter absent from the with clause simply leaves
// the corresponding field untouched, the same "fall back to a default"
// behaviour the hand-rolled per-parameter loops this replaces used to
// implement by hand.
func decodeParams(cfg *transformconfig.TransformConfig, dst interface{}) error {
	raw := make(map[string]interface{}, len(cfg.Parameters))
	for _, p := range cfg.Parameters {
		raw[p.Name] = paramNative(p.Value)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func paramNative(v condition.Value) interface{} {
	switch v.Kind {
	case condition.VInt:
		return v.IntVal
	case condition.VFloat:
		return v.FloatVal
	default:
		return v.StrVal
	}
}
