// Package tuple implements the typed row (Tuple) and its Schema, including
// the byte-exact serialize/deserialize format: a null bitmap of ceil(n/8)
// bytes followed by the non-null column values in column order.
package tuple

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"minidb/pkg/dberr"
	"minidb/pkg/types"
)

// Column describes one named, typed field of a Schema.
type Column struct {
	Name     string
	Type     types.DataType
	Nullable bool
}

// Schema is an ordered, named list of columns. Column indices are
// positional and column names are unique within one schema.
type Schema struct {
	Columns []Column
}

// NewSchema builds a Schema, rejecting duplicate column names.
func NewSchema(columns []Column) (*Schema, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("schema: duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	cp := make([]Column, len(columns))
	copy(cp, columns)
	return &Schema{Columns: cp}, nil
}

// Clone deep-copies the schema. The Catalog clones every schema it
// registers so tables own their column lists outright.
func (s *Schema) Clone() *Schema {
	cp := make([]Column, len(s.Columns))
	copy(cp, s.Columns)
	return &Schema{Columns: cp}
}

// NumColumns returns the number of columns in the schema.
func (s *Schema) NumColumns() int {
	return len(s.Columns)
}

// IndexOf returns the positional index of the named column, or -1 if no
// such column exists.
func (s *Schema) IndexOf(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Concat builds the schema produced by a join: the left schema's columns
// followed by the right schema's columns.
func Concat(left, right *Schema) *Schema {
	cols := make([]Column, 0, len(left.Columns)+len(right.Columns))
	cols = append(cols, left.Columns...)
	cols = append(cols, right.Columns...)
	return &Schema{Columns: cols}
}

// Project builds the schema that results from selecting a subset of
// columns by index, in the given order.
func (s *Schema) Project(indices []int) *Schema {
	cols := make([]Column, len(indices))
	for i, idx := range indices {
		cols[i] = s.Columns[idx]
	}
	return &Schema{Columns: cols}
}

// nullBitmapSize returns the number of bytes needed to hold one bit per
// column, rounded up.
func nullBitmapSize(numColumns int) int {
	return (numColumns + 7) / 8
}

// Serialize encodes the tuple as a null bitmap (bit i set iff value i is
// null) followed, for each non-null value in column order, by its typed
// payload: i64 little-endian for integers, a single 0/1 byte for booleans,
// u16 little-endian length then bytes for text.
func Serialize(t *Tuple) ([]byte, error) {
	schema := t.Schema
	if len(t.Values) != schema.NumColumns() {
		return nil, dberr.New(dberr.ColumnCountMismatch,
			"tuple has %d values, schema has %d columns", len(t.Values), schema.NumColumns())
	}

	// The bitmap lives in its own slice until the payloads are written;
	// sharing the buffer's backing array would break once it reallocates.
	bitmap := make([]byte, nullBitmapSize(schema.NumColumns()))
	var buf bytes.Buffer

	for i, v := range t.Values {
		if v.Null {
			bitmap[i/8] |= 1 << uint(i%8)
			continue
		}
		switch schema.Columns[i].Type {
		case types.Integer:
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], uint64(v.IntVal))
			buf.Write(tmp[:])
		case types.Boolean:
			if v.BoolVal {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		case types.Text:
			var lenBuf [2]byte
			binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(v.TextVal)))
			buf.Write(lenBuf[:])
			buf.Write(v.TextVal)
		default:
			return nil, fmt.Errorf("tuple: unknown column type %v", schema.Columns[i].Type)
		}
	}

	return append(bitmap, buf.Bytes()...), nil
}

// Deserialize reconstructs a Tuple from bytes produced by Serialize,
// driven by schema: non-null columns consume bytes according to their
// declared type, null columns (per the bitmap) consume zero bytes.
func Deserialize(data []byte, schema *Schema) (*Tuple, error) {
	bitmapLen := nullBitmapSize(schema.NumColumns())
	if len(data) < bitmapLen {
		return nil, fmt.Errorf("tuple: data too short for null bitmap")
	}
	bitmap := data[:bitmapLen]
	r := bytes.NewReader(data[bitmapLen:])

	values := make([]types.Value, schema.NumColumns())
	for i, col := range schema.Columns {
		isNull := bitmap[i/8]&(1<<uint(i%8)) != 0
		if isNull {
			values[i] = types.NullValue(col.Type)
			continue
		}

		switch col.Type {
		case types.Integer:
			var tmp [8]byte
			if _, err := io.ReadFull(r, tmp[:]); err != nil {
				return nil, fmt.Errorf("tuple: reading int column %q: %w", col.Name, err)
			}
			values[i] = types.NewInt(int64(binary.LittleEndian.Uint64(tmp[:])))
		case types.Boolean:
			b, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("tuple: reading bool column %q: %w", col.Name, err)
			}
			values[i] = types.NewBool(b != 0)
		case types.Text:
			var lenBuf [2]byte
			if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
				return nil, fmt.Errorf("tuple: reading text length for column %q: %w", col.Name, err)
			}
			n := binary.LittleEndian.Uint16(lenBuf[:])
			text := make([]byte, n)
			if _, err := io.ReadFull(r, text); err != nil {
				return nil, fmt.Errorf("tuple: reading text column %q: %w", col.Name, err)
			}
			values[i] = types.NewText(text)
		default:
			return nil, fmt.Errorf("tuple: unknown column type %v", col.Type)
		}
	}

	return &Tuple{Schema: schema, Values: values}, nil
}
