package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/utils"
)

const sequenceDayLayout = "20060102"

// SequenceCode formats PREFIX-YYYYMMDD-NNNN, where NNNN is count+1 zero-padded to four digits.
func SequenceCode(prefix string, day time.Time, count int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format(sequenceDayLayout), count+1)
}

// CountBetween counts records dated in [from, to).
type CountBetween func(ctx context.Context, from time.Time, to time.Time) (int64, error)

// SequenceAllocator hands out same-day document codes by counting existing
// records. Without a locker two concurrent callers may get the same code.
type SequenceAllocator struct {
	prefix   string
	count    CountBetween
	location *time.Location
	locker   SequenceLocker
}

func NewSequenceAllocator(prefix string, count CountBetween, location *time.Location, locker SequenceLocker) *SequenceAllocator {
	if location == nil {
		location = time.UTC
	}
	return &SequenceAllocator{prefix: prefix, count: count, location: location, locker: locker}
}

// Next returns the code for a record dated at. Call release once the record
// is inserted; it is safe to call more than once.
func (a *SequenceAllocator) Next(ctx context.Context, at time.Time) (code string, release func(), err error) {
	ctx, span := tracer.Start(ctx, "SequenceAllocator.Next")
	defer span.End()

	release = func() {}
	start, end := utils.DayBounds(at, a.location)
	if a.locker != nil {
		unlock, err := a.locker.Lock(ctx, a.prefix+"-"+start.Format(sequenceDayLayout))
		if err != nil {
			return "", release, err
		}
		var once sync.Once
		release = func() { once.Do(unlock) }
	}
	count, err := a.count(ctx, start, end)
	if err != nil {
		release()
		return "", func() {}, utils.StoreError("count "+a.prefix+" sequence", err)
	}
	return SequenceCode(a.prefix, start, count), release, nil
}
