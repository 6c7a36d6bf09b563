// Package dagcbor encodes and decodes plain Go values as DAG-CBOR,
// the deterministic subset of CBOR used for linked data.
//
// Values are the ones produced by decoding CBOR into an empty interface:
// nil, bool, int64, uint64, float64, string, []byte, []any, map[string]any,
// and cbor.Tag.
// The only tag permitted is TagLink (42),
// which carries a CID.
// See LinkTag and LinkFromTag.
package dagcbor

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
)

// TagLink is the CBOR tag number that marks a CID.
const TagLink = 42

// ErrBadLink is the error for tag-42 content that is not a valid CID.
var ErrBadLink = errors.New("malformed link")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		// Map keys sort by length first, then bytewise.
		Sort:          cbor.SortLengthFirst,
		ShortestFloat: cbor.ShortestFloatNone,
		IndefLength:   cbor.IndefLengthForbidden,
		TagsMd:        cbor.TagsAllowed,
	}.EncMode()
	if err != nil {
		panic("dagcbor: encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthForbidden,
		TagsMd:          cbor.TagsAllowed,
		MaxNestedLevels: 256,
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("dagcbor: decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v as DAG-CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes a single DAG-CBOR item.
// Trailing bytes are an error.
func Unmarshal(data []byte) (any, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// LinkTag produces the tag-42 form of c.
// The content is the binary CID preceded by the multibase identity prefix (a zero byte).
func LinkTag(c cid.Cid) cbor.Tag {
	b := c.Bytes()
	content := make([]byte, 0, 1+len(b))
	content = append(content, 0)
	content = append(content, b...)
	return cbor.Tag{Number: TagLink, Content: content}
}

// LinkFromTag parses the CID carried by a tag-42 value.
func LinkFromTag(t cbor.Tag) (cid.Cid, error) {
	if t.Number != TagLink {
		return cid.Undef, errors.Wrapf(ErrBadLink, "unexpected tag %d", t.Number)
	}
	b, ok := t.Content.([]byte)
	if !ok {
		return cid.Undef, errors.Wrapf(ErrBadLink, "content is %T, not a byte string", t.Content)
	}
	if len(b) == 0 || b[0] != 0 {
		return cid.Undef, errors.Wrap(ErrBadLink, "missing identity multibase prefix")
	}
	c, err := cid.Cast(b[1:])
	if err != nil {
		return cid.Undef, errors.Wrap(ErrBadLink, err.Error())
	}
	return c, nil
}
