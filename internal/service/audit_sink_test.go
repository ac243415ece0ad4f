package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"paymentgw/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(invoice string) *domain.AuditRecord {
	return &domain.AuditRecord{
		Invoice:  invoice,
		Amount:   decimal.NewFromFloat(123.0),
		Currency: "USD",
		Cardholder: domain.AuditCardholder{
			Name:  "**********",
			Email: "email@domain.com",
		},
		Card: domain.AuditCard{
			PAN:    "************7270",
			Expiry: "****",
		},
		ProcessedAt: time.Now().UTC(),
	}
}

func readAuditLines(t *testing.T, path string) []domain.AuditRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []domain.AuditRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec domain.AuditRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestFileAuditSink_AppendsMaskedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	sink := NewFileAuditSink(path, AuditSinkOptions{}, zerolog.Nop())
	sink.Start()

	sink.Submit(testRecord("12345"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sink.Stop(ctx))

	records := readAuditLines(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, "12345", records[0].Invoice)
	assert.Equal(t, "************7270", records[0].Card.PAN)
	assert.Equal(t, "**********", records[0].Cardholder.Name)
}

func TestFileAuditSink_DrainsAllRecordsOnStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	sink := NewFileAuditSink(path, AuditSinkOptions{MinWorkers: 2, MaxWorkers: 4}, zerolog.Nop())
	sink.Start()

	const total = 200
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sink.Submit(testRecord(fmt.Sprintf("INV-%03d", n)))
		}(i)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sink.Stop(ctx))

	records := readAuditLines(t, path)
	assert.Len(t, records, total)
	assert.Zero(t, sink.Dropped())

	// Every append stayed a single intact line.
	seen := make(map[string]bool, total)
	for _, rec := range records {
		seen[rec.Invoice] = true
	}
	assert.Len(t, seen, total)
}

func TestFileAuditSink_UnreachableDestinationDoesNotBlockSubmit(t *testing.T) {
	// Parent "directory" is a regular file, so every append fails.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	path := filepath.Join(blocker, "audit.log")

	sink := NewFileAuditSink(path, AuditSinkOptions{}, zerolog.Nop())
	sink.Start()

	done := make(chan struct{})
	go func() {
		sink.Submit(testRecord("12345"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on unreachable destination")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sink.Stop(ctx))
	assert.Equal(t, int64(1), sink.Dropped())
}

func TestFileAuditSink_OverflowDropsInsteadOfBlocking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	// Tiny queue, workers never started. Saturating the pool counter keeps
	// burst workers from spawning, so nothing drains the queue.
	sink := NewFileAuditSink(path, AuditSinkOptions{QueueSize: 1, MinWorkers: 1, MaxWorkers: 1}, zerolog.Nop())
	sink.workers.Store(sink.maxWorkers)

	done := make(chan struct{})
	go func() {
		sink.Submit(testRecord("A"))
		sink.Submit(testRecord("B"))
		sink.Submit(testRecord("C"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on full queue")
	}
	assert.Equal(t, int64(2), sink.Dropped())
}

func TestFileAuditSink_SubmitAfterStopIsDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	sink := NewFileAuditSink(path, AuditSinkOptions{}, zerolog.Nop())
	sink.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sink.Stop(ctx))

	sink.Submit(testRecord("12345"))
	assert.Equal(t, int64(1), sink.Dropped())
}

func TestFileAuditSink_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	sink := NewFileAuditSink(path, AuditSinkOptions{}, zerolog.Nop())
	sink.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sink.Stop(ctx))
	require.NoError(t, sink.Stop(ctx))
}
