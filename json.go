package txlog

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
)

// MarshalNodeJSON renders n as JSON using the DAG-JSON conventions:
// a Link is {"/": "<cid>"}
// and Bytes is {"/": {"bytes": "<unpadded base64>"}}.
// Floats always contain a decimal point or exponent,
// so they remain distinct from Ints.
func MarshalNodeJSON(n Node) ([]byte, error) {
	v, err := toJSON(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func toJSON(n Node) (any, error) {
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
			return nil, errors.Errorf("cannot render float %v", f)
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return json.Number(s), nil

	case String:
		return string(n), nil

	case Bytes:
		return map[string]any{"/": map[string]any{"bytes": base64.RawStdEncoding.EncodeToString(n)}}, nil

	case List:
		result := make([]any, 0, len(n))
		for i, elt := range n {
			v, err := toJSON(elt)
			if err != nil {
				return nil, errors.Wrapf(err, "list element %d", i)
			}
			result = append(result, v)
		}
		return result, nil

	case Map:
		if _, ok := n["/"]; ok && len(n) == 1 {
			return nil, errors.New(`map with sole key "/" is reserved`)
		}
		result := make(map[string]any, len(n))
		for k, elt := range n {
			v, err := toJSON(elt)
			if err != nil {
				return nil, errors.Wrapf(err, "map key %q", k)
			}
			result[k] = v
		}
		return result, nil

	case Link:
		return map[string]any{"/": n.String()}, nil
	}

	return nil, errors.Errorf("cannot render node of type %T", n)
}

// UnmarshalNodeJSON parses a single JSON value into a Node,
// recognizing the conventions described at MarshalNodeJSON.
// Numbers with a decimal point or exponent become Floats;
// other numbers become Ints.
func UnmarshalNodeJSON(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "parsing JSON")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return fromJSON(v)
}

func fromJSON(v any) (Node, error) {
	switch v := v.(type) {
	case nil:
		return Null{}, nil

	case bool:
		return Bool(v), nil

	case json.Number:
		s := string(v)
		if strings.ContainsAny(s, ".eE") {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing float %s", s)
			}
			return Float(f), nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing integer %s", s)
		}
		return Int(i), nil

	case string:
		return String(v), nil

	case []any:
		result := make(List, 0, len(v))
		for i, elt := range v {
			n, err := fromJSON(elt)
			if err != nil {
				return nil, errors.Wrapf(err, "list element %d", i)
			}
			result = append(result, n)
		}
		return result, nil

	case map[string]any:
		if slash, ok := v["/"]; ok && len(v) == 1 {
			return fromJSONSlash(slash)
		}
		result := make(Map, len(v))
		for k, elt := range v {
			n, err := fromJSON(elt)
			if err != nil {
				return nil, errors.Wrapf(err, "map key %q", k)
			}
			result[k] = n
		}
		return result, nil
	}

	return nil, errors.Errorf("unexpected JSON value of type %T", v)
}

func fromJSONSlash(v any) (Node, error) {
	switch v := v.(type) {
	case string:
		c, err := cid.Decode(v)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding link %s", v)
		}
		return Link{Cid: c}, nil

	case map[string]any:
		s, ok := v["bytes"].(string)
		if !ok || len(v) != 1 {
			return nil, errors.New(`malformed {"/": {"bytes": ...}} value`)
		}
		b, err := base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return nil, errors.Wrap(err, "decoding bytes")
		}
		return Bytes(b), nil
	}

	return nil, errors.Errorf(`unexpected %T under "/"`, v)
}
