// Package tradelog records dispatched trades to local CSV files and fans
// records out to additional sinks.
package tradelog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/quantfold/trendbot/internal/domain"
)

// CSVLog appends one line per trade to <dir>/<SYMBOL>.csv. Files are created
// on first use and kept open for the life of the process.
type CSVLog struct {
	dir string

	mu    sync.Mutex
	files map[string]*os.File
}

// NewCSVLog creates a CSV trade log rooted at dir, creating it if needed.
func NewCSVLog(dir string) (*CSVLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tradelog: creating %s: %w", dir, err)
	}
	return &CSVLog{
		dir:   dir,
		files: make(map[string]*os.File),
	}, nil
}

var _ domain.TradeLog = (*CSVLog)(nil)

// Append writes "timestamp,side,price,quantity" for the record.
func (l *CSVLog) Append(_ context.Context, rec domain.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.file(rec.Symbol)
	if err != nil {
		return err
	}

	line := fmt.Sprintf("%s,%s,%s,%s\n",
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Side,
		strconv.FormatFloat(rec.Price, 'f', -1, 64),
		strconv.FormatFloat(rec.Quantity, 'f', -1, 64),
	)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("tradelog: appending to %s: %w", f.Name(), err)
	}
	return nil
}

// Close closes all open per-symbol files.
func (l *CSVLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for sym, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("tradelog: closing %s: %w", f.Name(), err)
		}
		delete(l.files, sym)
	}
	return firstErr
}

// file returns the open file for symbol. Caller must hold l.mu.
func (l *CSVLog) file(symbol string) (*os.File, error) {
	if f, ok := l.files[symbol]; ok {
		return f, nil
	}
	path := filepath.Join(l.dir, symbol+".csv")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("tradelog: opening %s: %w", path, err)
	}
	l.files[symbol] = f
	return f, nil
}
