package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/imagecat/core"
)

// Key prefixes for different data types
const (
	checkpointPrefix = "chkpt"
	suggestionPrefix = "sugg"
)

// makeCheckpointKey generates a key for an input file's checkpoint.
// Format: prefix:inputPath
func makeCheckpointKey(inputPath string) []byte {
	return []byte(fmt.Sprintf("%s:%s", checkpointPrefix, inputPath))
}

// makeSuggestionKey generates a key for a cached suggestion.
// Format: prefix:id
func makeSuggestionKey(id core.ID) []byte {
	prefix := suggestionPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
