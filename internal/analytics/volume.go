package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"CoinScope/internal/model"
)

const bucketLabelLayout = "Jan 02"

// BucketVolume sums volume into contiguous date-range buckets. The width is
// picked from the total span so the histogram keeps a readable number of bars.
// Buckets start at the first observation rather than on calendar boundaries,
// and the last one may be narrower than the width.
func BucketVolume(series []model.PriceObservation, p Policy) []model.VolumeBucket {
	buckets := make([]model.VolumeBucket, 0)
	if len(series) == 0 {
		return buckets
	}

	span := calendarDays(series[0].Timestamp, series[len(series)-1].Timestamp) + 1
	width := p.bucketWidth(span)

	start := series[0].Timestamp
	end := start
	sum := decimal.Zero
	for _, o := range series {
		if calendarDays(start, o.Timestamp) >= width {
			buckets = append(buckets, newBucket(start, end, sum))
			start = o.Timestamp
			sum = decimal.Zero
		}
		end = o.Timestamp
		sum = sum.Add(o.VolumeOrZero())
	}
	return append(buckets, newBucket(start, end, sum))
}

// newBucket labels in UTC, the calendar calendarDays groups by.
func newBucket(start, end time.Time, sum decimal.Decimal) model.VolumeBucket {
	return model.VolumeBucket{
		Label: fmt.Sprintf("%s - %s", start.UTC().Format(bucketLabelLayout), end.UTC().Format(bucketLabelLayout)),
		Value: sum,
	}
}
