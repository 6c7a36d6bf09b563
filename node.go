package txlog

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
)

// Kind tells which variant of Node a value is.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
	KindLink
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "bytes", "list", "map", "link"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is a logical value that can be written to a Transaction.
// It is one of Null, Bool, Int, Float, String, Bytes, List, Map, or Link.
// A Link embeds the CID of another block,
// which is how blocks refer to one another.
type Node interface {
	Kind() Kind
	node()
}

type (
	// Null is the null value.
	Null struct{}

	// Bool is a boolean.
	Bool bool

	// Int is an integer.
	Int int64

	// Float is a floating-point number.
	// NaN and infinities cannot be encoded.
	Float float64

	// String is a UTF-8 string.
	String string

	// Bytes is a byte sequence.
	// A Bytes node at the top level of a block is stored raw.
	Bytes []byte

	// List is a sequence of nodes.
	List []Node

	// Map is a string-keyed mapping of nodes.
	Map map[string]Node

	// Link is a reference to another block.
	Link struct {
		cid.Cid
	}
)

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (String) Kind() Kind { return KindString }
func (Bytes) Kind() Kind  { return KindBytes }
func (List) Kind() Kind   { return KindList }
func (Map) Kind() Kind    { return KindMap }
func (Link) Kind() Kind   { return KindLink }

func (Null) node()   {}
func (Bool) node()   {}
func (Int) node()    {}
func (Float) node()  {}
func (String) node() {}
func (Bytes) node()  {}
func (List) node()   {}
func (Map) node()    {}
func (Link) node()   {}

// From converts a plain Go value to a Node.
// It understands nil, booleans, integers, floats, strings, byte slices, cid.Cid,
// Nodes,
// and (recursively) slices, arrays, and string-keyed maps of those.
func From(v any) (Node, error) {
	switch v := v.(type) {
	case nil:
		return Null{}, nil
	case Node:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int8:
		return Int(v), nil
	case int16:
		return Int(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case uint8:
		return Int(v), nil
	case uint16:
		return Int(v), nil
	case uint32:
		return Int(v), nil
	case uint:
		return fromUint(uint64(v))
	case uint64:
		return fromUint(v)
	case float32:
		return Float(v), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case []byte:
		return Bytes(v), nil
	case cid.Cid:
		if !v.Defined() {
			return nil, errors.New("undefined cid")
		}
		return Link{Cid: v}, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make(List, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			n, err := From(rv.Index(i).Interface())
			if err != nil {
				return nil, errors.Wrapf(err, "element %d", i)
			}
			list = append(list, n)
		}
		return list, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, errors.Errorf("map key type %s is not a string", rv.Type().Key())
		}
		m := make(Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			n, err := From(iter.Value().Interface())
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", k)
			}
			m[k] = n
		}
		return m, nil

	case reflect.Ptr:
		if rv.IsNil() {
			return Null{}, nil
		}
		return From(rv.Elem().Interface())
	}

	return nil, errors.Errorf("cannot convert %T to a node", v)
}

func fromUint(u uint64) (Node, error) {
	if u > math.MaxInt64 {
		return nil, errors.Errorf("integer %d overflows int64", u)
	}
	return Int(u), nil
}

// Links returns the CIDs of all the links inside n,
// in depth-first order,
// visiting map entries in key order.
func Links(n Node) []cid.Cid {
	var result []cid.Cid
	walkLinks(n, func(c cid.Cid) {
		result = append(result, c)
	})
	return result
}

func walkLinks(n Node, f func(cid.Cid)) {
	switch n := n.(type) {
	case Link:
		f(n.Cid)

	case List:
		for _, elt := range n {
			walkLinks(elt, f)
		}

	case Map:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkLinks(n[k], f)
		}
	}
}
