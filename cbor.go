package txlog

import (
	"math"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/bobg/txlog/dagcbor"
)

func encodeCBOR(n Node) ([]byte, error) {
	v, err := toCBOR(n)
	if err != nil {
		return nil, err
	}
	return dagcbor.Marshal(v)
}

func decodeCBOR(data []byte) (Node, error) {
	v, err := dagcbor.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding dag-cbor")
	}
	return fromCBOR(v)
}

// Empty byte strings, lists, and maps are made non-nil
// so the encoder does not turn them into null.
func toCBOR(n Node) (any, error) {
	switch n := n.(type) {
	case Null:
		return nil, nil

	case Bool:
		return bool(n), nil

	case Int:
		return int64(n), nil

	case Float:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.Errorf("cannot encode float %v", f)
		}
		return f, nil

	case String:
		if !utf8.ValidString(string(n)) {
			return nil, errors.Errorf("string %q is not valid UTF-8", string(n))
		}
		return string(n), nil

	case Bytes:
		if n == nil {
			return []byte{}, nil
		}
		return []byte(n), nil

	case List:
		result := make([]any, 0, len(n))
		for i, elt := range n {
			v, err := toCBOR(elt)
			if err != nil {
				return nil, errors.Wrapf(err, "list element %d", i)
			}
			result = append(result, v)
		}
		return result, nil

	case Map:
		result := make(map[string]any, len(n))
		for k, elt := range n {
			if !utf8.ValidString(k) {
				return nil, errors.Errorf("map key %q is not valid UTF-8", k)
			}
			v, err := toCBOR(elt)
			if err != nil {
				return nil, errors.Wrapf(err, "map key %q", k)
			}
			result[k] = v
		}
		return result, nil

	case Link:
		if !n.Defined() {
			return nil, errors.New("cannot encode undefined link")
		}
		return dagcbor.LinkTag(n.Cid), nil

	case nil:
		return nil, errors.New("cannot encode nil node")
	}

	return nil, errors.Errorf("cannot encode node of type %T", n)
}

func fromCBOR(v any) (Node, error) {
	switch v := v.(type) {
	case nil:
		return Null{}, nil

	case bool:
		return Bool(v), nil

	case uint64:
		if v > math.MaxInt64 {
			return nil, errors.Errorf("integer %d overflows int64", v)
		}
		return Int(v), nil

	case int64:
		return Int(v), nil

	case float64:
		return Float(v), nil

	case string:
		return String(v), nil

	case []byte:
		return Bytes(v), nil

	case []any:
		result := make(List, 0, len(v))
		for i, elt := range v {
			n, err := fromCBOR(elt)
			if err != nil {
				return nil, errors.Wrapf(err, "list element %d", i)
			}
			result = append(result, n)
		}
		return result, nil

	case map[string]any:
		result := make(Map, len(v))
		for k, elt := range v {
			n, err := fromCBOR(elt)
			if err != nil {
				return nil, errors.Wrapf(err, "map key %q", k)
			}
			result[k] = n
		}
		return result, nil

	case cbor.Tag:
		c, err := dagcbor.LinkFromTag(v)
		if err != nil {
			return nil, err
		}
		return Link{Cid: c}, nil
	}

	return nil, errors.Errorf("unsupported dag-cbor value of type %T", v)
}
