package overlay

import (
	"fmt"
	"hash/crc32"
	"io"
	"sort"
)

// versionStamp returns a checksum of the tile keys and their encoded
// content.
func versionStamp(buffers map[string][]byte) string {
	keys := make([]string, 0, len(buffers))
	for k := range buffers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := crc32.NewIEEE()
	for _, k := range keys {
		io.WriteString(h, k)
		h.Write(buffers[k])
	}

	return fmt.Sprintf("%.*X", crc32.Size<<1, h.Sum(nil))
}

// contentStamp returns a checksum of b.
func contentStamp(b []byte) string {
	return fmt.Sprintf("%.*X", crc32.Size<<1, crc32.ChecksumIEEE(b))
}
