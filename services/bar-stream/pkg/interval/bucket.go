package interval

import "time"

const secondsPerDay = 24 * 60 * 60

// BucketStart returns the UTC start of the bucket containing ts.
//
// Epoch-aligned intervals use floor(unix/duration)*duration, day buckets start
// at UTC midnight and week buckets at the preceding Monday UTC midnight.
func (i Interval) BucketStart(ts time.Time) time.Time {
	secs := ts.Unix()

	switch i.Alignment {
	case AlignDay:
		return time.Unix(floorDiv(secs, secondsPerDay)*secondsPerDay, 0).UTC()
	case AlignWeek:
		day := floorDiv(secs, secondsPerDay)
		// 1970-01-01 was a Thursday, three days after a Monday.
		sinceMonday := floorMod(day+3, 7)
		return time.Unix((day-sinceMonday)*secondsPerDay, 0).UTC()
	default:
		size := int64(i.Duration / time.Second)
		if size <= 0 {
			size = 1
		}
		return time.Unix(floorDiv(secs, size)*size, 0).UTC()
	}
}

// Next returns the start of the bucket that follows bucket.
func (i Interval) Next(bucket time.Time) time.Time {
	return bucket.Add(i.Duration)
}

// BucketStart resolves name and returns the bucket start for ts.
func BucketStart(ts time.Time, name string) time.Time {
	return Resolve(name).BucketStart(ts)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
