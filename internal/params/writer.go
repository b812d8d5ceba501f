package params

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/x448/float16"
)

// WriteFile serializes the store into the weight container that
// LoadFile reads. Tensors are written in Names() order, so the same
// store always produces the same bytes. half selects IEEE half
// precision, trading accuracy for a file half the size.
func WriteFile(path string, store *Store, half bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write weights: %w", err)
	}
	w := bufio.NewWriterSize(f, 1<<16)

	names := store.Names()
	w.WriteString(fileMagic)
	binary.Write(w, binary.LittleEndian, uint32(fileVersion))
	binary.Write(w, binary.LittleEndian, uint32(len(names)))

	for _, name := range names {
		buf, err := store.Tensor(name)
		if err != nil {
			f.Close()
			return fmt.Errorf("write weights %s: %w", path, err)
		}
		binary.Write(w, binary.LittleEndian, uint16(len(name)))
		w.WriteString(name)
		if half {
			binary.Write(w, binary.LittleEndian, uint8(dtypeF16))
			binary.Write(w, binary.LittleEndian, uint64(len(buf)))
			bits := make([]uint16, len(buf))
			for i, v := range buf {
				bits[i] = float16.Fromfloat32(v).Bits()
			}
			binary.Write(w, binary.LittleEndian, bits)
		} else {
			binary.Write(w, binary.LittleEndian, uint8(dtypeF32))
			binary.Write(w, binary.LittleEndian, uint64(len(buf)))
			binary.Write(w, binary.LittleEndian, buf)
		}
	}

	// bufio errors are sticky; Flush reports the first one.
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write weights %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write weights %s: %w", path, err)
	}
	return nil
}
