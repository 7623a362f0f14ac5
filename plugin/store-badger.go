package plugin

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	At "github.com/maroda/almanac/types"
)

const chartKeyLen = 8 + 8 + 8 // instant + latitude bits + longitude bits

var (
	ErrInstantRange = errors.New("birth instant outside storable range")
	ErrBadInstant   = errors.New("could not parse chart datetime")
)

// chartLayouts are accepted for ChartRequest.DatetimeISO, most specific first
var chartLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// BufferedChart is a chart waiting for the next batch write
type BufferedChart struct {
	Key   []byte
	Chart *At.Chart
}

type BadgerStore struct {
	MU        sync.Mutex
	DB        *badger.DB
	BatchSize int
	Buffer    []BufferedChart
}

func NewBadgerStore(path string, batchSize int) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1).
		WithLogger(nil)

	return openBadgerStore(opts, batchSize, path)
}

// NewMemoryStore is a BadgerStore that never touches disk
func NewMemoryStore(batchSize int) (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return openBadgerStore(opts, batchSize, ":memory:")
}

func openBadgerStore(opts badger.Options, batchSize int, path string) (*BadgerStore, error) {
	if batchSize < 1 {
		batchSize = 1
	}

	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("BadgerStore failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	slog.Info("BadgerStore opened",
		slog.String("path", path),
		slog.Int("batchSize", batchSize))

	return &BadgerStore{
		DB:        db,
		BatchSize: batchSize,
		Buffer:    make([]BufferedChart, 0, batchSize),
	}, nil
}

// Put queues up a chart,
// when batchsize is reached, it calls flushLocked()
// which calls WriteBatch() with the new batch
func (bs *BadgerStore) Put(chart *At.Chart) error {
	if chart == nil {
		return errors.New("nil chart")
	}
	key, err := ChartKey(chart.Request)
	if err != nil {
		return err
	}

	bs.MU.Lock()
	defer bs.MU.Unlock()

	bs.Buffer = append(bs.Buffer, BufferedChart{Key: key, Chart: chart})
	if len(bs.Buffer) >= bs.BatchSize {
		return bs.flushLocked()
	}
	return nil
}

// Get checks the unflushed buffer, newest first, then the database
func (bs *BadgerStore) Get(req At.ChartRequest) (*At.Chart, bool, error) {
	key, err := ChartKey(req)
	if err != nil {
		return nil, false, err
	}

	bs.MU.Lock()
	for i := len(bs.Buffer) - 1; i >= 0; i-- {
		if bytes.Equal(bs.Buffer[i].Key, key) {
			chart := bs.Buffer[i].Chart
			bs.MU.Unlock()
			return chart, true, nil
		}
	}
	bs.MU.Unlock()

	var chart *At.Chart
	err = bs.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			c, err := ChartDecode(val)
			if err != nil {
				return fmt.Errorf("chart decode error: %w", err)
			}
			chart = c
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		slog.Error("BadgerStore failed to read chart", slog.Any("error", err))
		return nil, false, err
	}
	return chart, true, nil
}

// WriteBatch performs the key/value creation to be stored
// and actually calls BadgerDB to write the data
func (bs *BadgerStore) WriteBatch(charts []BufferedChart) error {
	wb := bs.DB.NewWriteBatch()
	defer wb.Cancel()

	for _, c := range charts {
		v, err := ChartEncode(c.Chart)
		if err != nil {
			return fmt.Errorf("chart encode error: %w", err)
		}
		if err := wb.Set(c.Key, v); err != nil {
			slog.Error("BadgerStore failed to set key in batch",
				slog.Any("error", err),
				slog.String("datetime", c.Chart.Request.DatetimeISO))
			return fmt.Errorf("write batch error: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("BadgerStore failed to flush batch", slog.Any("error", err))
		return fmt.Errorf("batch flush error: %w", err)
	}

	return nil
}

// Flush is the public method that blocks,
// it sends data to WriteBatch and then clears the buffer
func (bs *BadgerStore) Flush() error {
	bs.MU.Lock()
	defer bs.MU.Unlock()
	return bs.flushLocked()
}

// flushLocked mimics Flush without locking, called by Put
func (bs *BadgerStore) flushLocked() error {
	if len(bs.Buffer) == 0 {
		return nil
	}
	err := bs.WriteBatch(bs.Buffer)
	bs.Buffer = bs.Buffer[:0] // Clear but keep capacity
	return err
}

// Close returns a Flush error but still attempts to close
func (bs *BadgerStore) Close() error {
	slog.Info("BadgerStore closing, flushing buffer",
		slog.Int("bufferSize", len(bs.Buffer)))
	flushErr := bs.Flush()
	closeErr := bs.DB.Close()

	if flushErr != nil {
		slog.Error("BadgerStore failed to flush on close", slog.Any("error", flushErr))
		return fmt.Errorf("flush failed, close may have failed: %w", flushErr)
	}

	if closeErr != nil {
		slog.Error("BadgerStore failed to close database", slog.Any("error", closeErr))
		return fmt.Errorf("close failed: %w", closeErr)
	}

	slog.Info("BadgerStore closed successfully")
	return nil
}

func (bs *BadgerStore) Type() string { return "BadgerDB" }

// ChartInstant is the UTC birth instant of a request:
// the local datetime plus TZOffsetMinutes
func ChartInstant(req At.ChartRequest) (time.Time, error) {
	for _, layout := range chartLayouts {
		t, err := time.Parse(layout, req.DatetimeISO)
		if err == nil {
			return t.Add(time.Duration(req.TZOffsetMinutes) * time.Minute).UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadInstant, req.DatetimeISO)
}

// instantBits orders keys chronologically, including instants before 1970.
// Flipping the sign bit maps int64 order onto uint64 order.
func instantBits(t time.Time) uint64 {
	return uint64(t.UnixNano()) ^ (1 << 63)
}

// ChartKey creates a composite key
// instant + latitude + longitude, all BigEndian
func ChartKey(req At.ChartRequest) ([]byte, error) {
	t, err := ChartInstant(req)
	if err != nil {
		return nil, err
	}
	// UnixNano is only defined for years 1678 to 2262
	if t.Year() < 1678 || t.Year() > 2261 {
		return nil, fmt.Errorf("%w: %s", ErrInstantRange, t.Format(time.RFC3339))
	}

	key := make([]byte, chartKeyLen)
	binary.BigEndian.PutUint64(key[0:8], instantBits(t))
	binary.BigEndian.PutUint64(key[8:16], coordBits(req.Latitude))
	binary.BigEndian.PutUint64(key[16:24], coordBits(req.Longitude))
	return key, nil
}

// coordBits folds -0 into 0 so both key the same place
func coordBits(c float64) uint64 {
	if c == 0 {
		c = 0
	}
	return math.Float64bits(c)
}

// instantPrefix is the first 8 bytes of any key at t
func instantPrefix(t time.Time) []byte {
	p := make([]byte, 8)
	binary.BigEndian.PutUint64(p, instantBits(t))
	return p
}

// ChartEncode serializes the chart for data storage
func ChartEncode(c *At.Chart) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ChartDecode deserializes the chart data
func ChartDecode(data []byte) (*At.Chart, error) {
	var c At.Chart
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	err := dec.Decode(&c)
	return &c, err
}

// QueryRange retrieves charts whose birth instant is inside (start, end).
// Buffered charts are flushed first so the database holds everything.
func (bs *BadgerStore) QueryRange(start, end time.Time) ([]*At.Chart, error) {
	if err := bs.Flush(); err != nil {
		return nil, err
	}

	var charts []*At.Chart

	// db.View() callback
	// BadgerDB provides a transaction in which to get item.Value()
	err := bs.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		// Keys sort by instant, so seek to start and stop past end
		for it.Seek(instantPrefix(start)); it.Valid(); it.Next() {
			item := it.Item()
			k := item.Key()
			if len(k) != chartKeyLen {
				continue
			}
			bits := binary.BigEndian.Uint64(k[0:8])
			if bits >= instantBits(end) {
				break
			}
			if bits == instantBits(start) {
				continue
			}

			// item.Value() callback
			// BadgerDB passes bytes to the anon func
			err := item.Value(func(val []byte) error {
				chart, err := ChartDecode(val)
				if err != nil {
					slog.Error("BadgerStore failed to decode chart", slog.Any("error", err))
					return fmt.Errorf("chart decode error: %w", err)
				}
				charts = append(charts, chart)
				return nil
			})
			if err != nil {
				slog.Error("BadgerStore callback failure", slog.Any("error", err))
				return fmt.Errorf("item data error: %w", err)
			}
		}
		return nil
	})

	slog.Debug("BadgerStore QueryRange complete", slog.Int("count", len(charts)))

	return charts, err
}
