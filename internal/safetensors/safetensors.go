// Package safetensors reads tensors from safetensors files.
//
// Only the subset needed for voice style tables is implemented: F32 and F16
// tensors, loaded eagerly from a single file. The format is a little-endian
// uint64 header length, a JSON header mapping tensor names to dtype/shape/
// byte offsets, then the raw tensor data.
package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
)

const (
	dtypeF32 = "F32"
	dtypeF16 = "F16"
)

// Tensor is a decoded named tensor with row-major float32 data.
type Tensor struct {
	Name  string
	Shape []int64
	Data  []float32
}

// File provides access to the tensors of one safetensors file.
type File struct {
	raw     []byte
	entries map[string]entry
	names   []string
}

type entry struct {
	DType string
	Shape []int64
	Start int
	End   int
}

type headerEntry struct {
	DType   string  `json:"dtype"`
	Shape   []int64 `json:"shape"`
	Offsets [2]int  `json:"data_offsets"`
}

// Open reads and indexes a safetensors file.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("safetensors: read %s: %w", path, err)
	}

	return FromBytes(data)
}

// FromBytes indexes an in-memory safetensors payload.
func FromBytes(data []byte) (*File, error) {
	headerEnd, header, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]entry, len(header))
	names := make([]string, 0, len(header))

	for name, raw := range header {
		if name == "__metadata__" {
			continue
		}

		var he headerEntry
		if err := json.Unmarshal(raw, &he); err != nil {
			return nil, fmt.Errorf("safetensors: decode header entry %q: %w", name, err)
		}

		if err := validateEntry(name, he); err != nil {
			return nil, err
		}

		start := headerEnd + he.Offsets[0]
		end := headerEnd + he.Offsets[1]
		if end < start || end > len(data) {
			return nil, fmt.Errorf("safetensors: tensor %q data [%d:%d] exceeds file size %d", name, start, end, len(data))
		}

		count, err := elementCount(he.Shape)
		if err != nil {
			return nil, fmt.Errorf("safetensors: tensor %q: %w", name, err)
		}

		elemBytes := 4
		if strings.ToUpper(he.DType) == dtypeF16 {
			elemBytes = 2
		}
		if end-start < int(count)*elemBytes {
			return nil, fmt.Errorf("safetensors: tensor %q needs %d bytes but data has %d", name, int(count)*elemBytes, end-start)
		}

		entries[name] = entry{
			DType: strings.ToUpper(he.DType),
			Shape: append([]int64(nil), he.Shape...),
			Start: start,
			End:   end,
		}
		names = append(names, name)
	}

	if len(entries) == 0 {
		return nil, errors.New("safetensors: no tensors found")
	}

	sort.Strings(names)

	return &File{raw: data, entries: entries, names: names}, nil
}

// Names returns the sorted tensor names.
func (f *File) Names() []string {
	return append([]string(nil), f.names...)
}

// Has reports whether a tensor with the given name exists.
func (f *File) Has(name string) bool {
	_, ok := f.entries[name]
	return ok
}

// Tensor decodes the named tensor to float32.
func (f *File) Tensor(name string) (*Tensor, error) {
	e, ok := f.entries[name]
	if !ok {
		return nil, fmt.Errorf("safetensors: tensor %q not found", name)
	}

	data, err := decodeData(f.raw[e.Start:e.End], e.DType, e.Shape)
	if err != nil {
		return nil, fmt.Errorf("safetensors: tensor %q decode: %w", name, err)
	}

	return &Tensor{
		Name:  name,
		Shape: append([]int64(nil), e.Shape...),
		Data:  data,
	}, nil
}

// TensorWithShape decodes the named tensor and fails if its shape differs
// from wantShape.
func (f *File) TensorWithShape(name string, wantShape []int64) (*Tensor, error) {
	t, err := f.Tensor(name)
	if err != nil {
		return nil, err
	}

	if !equalShape(t.Shape, wantShape) {
		return nil, fmt.Errorf("safetensors: tensor %q shape %v does not match expected %v", name, t.Shape, wantShape)
	}

	return t, nil
}

func decodeHeader(data []byte) (int, map[string]json.RawMessage, error) {
	if len(data) < 8 {
		return 0, nil, fmt.Errorf("safetensors: file too short (%d bytes)", len(data))
	}

	headerLen := binary.LittleEndian.Uint64(data[:8])

	headerEnd := 8 + int(headerLen)
	if headerEnd > len(data) {
		return 0, nil, fmt.Errorf("safetensors: header length %d exceeds file size %d", headerLen, len(data))
	}

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:headerEnd], &header); err != nil {
		return 0, nil, fmt.Errorf("safetensors: parse header: %w", err)
	}

	return headerEnd, header, nil
}

func validateEntry(name string, he headerEntry) error {
	switch strings.ToUpper(he.DType) {
	case dtypeF32, dtypeF16:
	default:
		return fmt.Errorf("safetensors: tensor %q has unsupported dtype %q", name, he.DType)
	}

	if he.Offsets[0] < 0 || he.Offsets[1] < he.Offsets[0] {
		return fmt.Errorf("safetensors: tensor %q has invalid data offsets %v", name, he.Offsets)
	}

	for _, d := range he.Shape {
		if d < 0 {
			return fmt.Errorf("safetensors: tensor %q has negative shape dimension in %v", name, he.Shape)
		}
	}

	return nil
}

func elementCount(shape []int64) (int64, error) {
	total := int64(1)
	for _, d := range shape {
		if d == 0 {
			return 0, nil
		}

		if total > math.MaxInt64/d {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}

		total *= d
	}

	return total, nil
}

func decodeData(raw []byte, dtype string, shape []int64) ([]float32, error) {
	count, err := elementCount(shape)
	if err != nil {
		return nil, err
	}

	n := int(count)
	out := make([]float32, n)

	switch dtype {
	case dtypeF32:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	case dtypeF16:
		for i := range out {
			out[i] = float16ToFloat32(binary.LittleEndian.Uint16(raw[i*2:]))
		}
	default:
		return nil, fmt.Errorf("unsupported dtype %q", dtype)
	}

	return out, nil
}

func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h & 0x03ff)

	var bits uint32

	switch exp {
	case 0:
		if frac == 0 {
			bits = sign << 31
		} else {
			// Subnormal: normalize.
			e := int32(-14)
			for (frac & 0x0400) == 0 {
				frac <<= 1
				e--
			}

			frac &= 0x03ff
			bits = (sign << 31) | (uint32(e+127) << 23) | (frac << 13)
		}
	case 0x1f:
		bits = (sign << 31) | 0x7f800000 | (frac << 13)
	default:
		bits = (sign << 31) | ((exp + 112) << 23) | (frac << 13)
	}

	return math.Float32frombits(bits)
}

func equalShape(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
