package utility

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	ulidMu      sync.Mutex
	ulidEntropy io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Monotonic entropy keeps ids created within the same millisecond sortable.
	ulidEntropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0) // #nosec G404
}

// NewExchangeID returns a time-sortable ULID used for exchange orders and trades.
func NewExchangeID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), ulidEntropy).String()
}

// NewID returns a UUIDv7 used for positions, position orders and exit specs.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
