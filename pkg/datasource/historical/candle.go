package historical

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// BinaryCandle is the on-disk record of one candle. Records are stored in
// native byte order, sorted by TimeStamp (unix nanoseconds).
type BinaryCandle struct {
	TimeStamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func (b *BinaryCandle) ToCandle(candle *common.Candle, priceDigits, volumeDigits int) {
	candle.TimeStamp = time.Unix(0, b.TimeStamp).UTC()
	candle.Open = fixed.FromFloat64(b.Open).Rescale(priceDigits)
	candle.High = fixed.FromFloat64(b.High).Rescale(priceDigits)
	candle.Low = fixed.FromFloat64(b.Low).Rescale(priceDigits)
	candle.Close = fixed.FromFloat64(b.Close).Rescale(priceDigits)
	candle.Volume = fixed.FromFloat64(b.Volume).Rescale(volumeDigits)
}

func (b *BinaryCandle) FromCandle(candle common.Candle) {
	b.TimeStamp = candle.TimeStamp.UnixNano()
	b.Open, _ = candle.Open.Float64()
	b.High, _ = candle.High.Float64()
	b.Low, _ = candle.Low.Float64()
	b.Close, _ = candle.Close.Float64()
	b.Volume, _ = candle.Volume.Float64()
}

// WriteCandles stores candles at path in the layout Source[BinaryCandle] reads.
func WriteCandles(path string, candles []common.Candle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", path, err)
	}

	w := bufio.NewWriter(f)
	var record BinaryCandle
	for i, candle := range candles {
		record.FromCandle(candle)
		if err := binary.Write(w, binary.NativeEndian, &record); err != nil {
			_ = f.Close()
			return fmt.Errorf("unable to write candle %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("unable to flush %q: %w", path, err)
	}
	return f.Close()
}
