package params

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/x448/float16"

	"github.com/carrycooldude/EdgeAIApp/internal/config"
)

// Weight container layout, little-endian throughout:
//
//	magic "EAIW" | u32 version | u32 tensor count
//	per tensor: u16 name len | name | u8 dtype | u64 count | data
//
// dtype 0 is float32, dtype 1 is IEEE half precision.
const (
	fileMagic   = "EAIW"
	fileVersion = 1

	dtypeF32 = 0
	dtypeF16 = 1
)

// LoadFile reads trained weights and validates them against the model
// config: every expected tensor must be present with its exact size,
// and nothing else may be in the file.
func LoadFile(path string, cfg config.Model) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}
	defer f.Close()
	br := bufio.NewReaderSize(f, 1<<16)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("weights %s: read magic: %w", path, err)
	}
	if string(magic[:]) != fileMagic {
		return nil, fmt.Errorf("weights %s: bad magic %q", path, magic)
	}

	var version, count uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("weights %s: read version: %w", path, err)
	}
	if version != fileVersion {
		return nil, fmt.Errorf("weights %s: unsupported version %d", path, version)
	}
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("weights %s: read tensor count: %w", path, err)
	}

	tensors := make(map[string][]float32, count)
	for i := 0; i < int(count); i++ {
		name, buf, err := readTensor(br)
		if err != nil {
			return nil, fmt.Errorf("weights %s: tensor %d: %w", path, i, err)
		}
		if _, dup := tensors[name]; dup {
			return nil, fmt.Errorf("weights %s: duplicate tensor %q", path, name)
		}
		tensors[name] = buf
	}

	specs := shapes(cfg)
	expected := make(map[string]int, len(specs))
	var total int64
	for _, sp := range specs {
		expected[sp.name] = sp.size
		buf, ok := tensors[sp.name]
		if !ok {
			return nil, fmt.Errorf("weights %s: missing tensor %q", path, sp.name)
		}
		if len(buf) != sp.size {
			return nil, fmt.Errorf("weights %s: tensor %q has %d values, want %d",
				path, sp.name, len(buf), sp.size)
		}
		total += int64(sp.size)
	}
	for name := range tensors {
		if _, ok := expected[name]; !ok {
			return nil, fmt.Errorf("weights %s: unexpected tensor %q", path, name)
		}
	}

	return &Store{tensors: tensors, params: total}, nil
}

func readTensor(br *bufio.Reader) (string, []float32, error) {
	var nameLen uint16
	if err := binary.Read(br, binary.LittleEndian, &nameLen); err != nil {
		return "", nil, fmt.Errorf("read name length: %w", err)
	}
	if nameLen == 0 || nameLen > 256 {
		return "", nil, fmt.Errorf("implausible name length %d", nameLen)
	}
	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(br, nameBuf); err != nil {
		return "", nil, fmt.Errorf("read name: %w", err)
	}
	name := string(nameBuf)

	var dtype uint8
	if err := binary.Read(br, binary.LittleEndian, &dtype); err != nil {
		return name, nil, fmt.Errorf("read dtype: %w", err)
	}
	var n uint64
	if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
		return name, nil, fmt.Errorf("read count: %w", err)
	}
	if n == 0 || n > uint64(DefaultMaxParameters) {
		return name, nil, fmt.Errorf("implausible value count %d", n)
	}

	buf := make([]float32, n)
	switch dtype {
	case dtypeF32:
		if err := binary.Read(br, binary.LittleEndian, buf); err != nil {
			return name, nil, fmt.Errorf("read f32 data: %w", err)
		}
	case dtypeF16:
		bits := make([]uint16, n)
		if err := binary.Read(br, binary.LittleEndian, bits); err != nil {
			return name, nil, fmt.Errorf("read f16 data: %w", err)
		}
		for i, b := range bits {
			buf[i] = float16.Frombits(b).Float32()
		}
	default:
		return name, nil, fmt.Errorf("unknown dtype %d", dtype)
	}
	return name, buf, nil
}
