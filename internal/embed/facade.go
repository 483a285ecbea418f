package embed

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
)

// State is the lifecycle of the Embedder Facade's lazily-initialized model.
type State string

const (
	StateNotInitialized State = "not_initialized"
	StateInitializing    State = "initializing"
	StateReady           State = "ready"
	StateFailed          State = "failed"
	StateBusy            State = "busy"
)

// RuntimeStatus is a snapshot of the facade's lifecycle, safe to read
// concurrently with in-flight initialization or inference.
type RuntimeStatus struct {
	State              State
	InitAttempts       int
	LastStartedAtMs    int64
	LastFinishedAtMs   int64
	LastDurationMs     int64
	LastError          string
}

// Facade is the lazily-initialized, process-wide embedding collaborator.
// First use triggers a one-time initialization; a failure latches, and
// every subsequent call returns EmbedderUnavailable until the process
// restarts. State transitions hold the lock only briefly; embedding calls
// themselves run under a short-held lock to serialize inference, per the
// spec's concurrency model (§5).
type Facade struct {
	mu      sync.Mutex
	newFunc func() (Embedder, error)
	inner   Embedder
	status  RuntimeStatus
}

// NewFacade builds a Facade that constructs its embedder lazily via
// newFunc on first use. Production wiring passes a constructor for
// CachedEmbedder-wrapped StaticEmbedder; tests can substitute a failing
// constructor to exercise the latch.
func NewFacade(newFunc func() (Embedder, error)) *Facade {
	return &Facade{
		newFunc: newFunc,
		status:  RuntimeStatus{State: StateNotInitialized},
	}
}

// Status returns a snapshot of the facade's current lifecycle state.
func (f *Facade) Status() RuntimeStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// ensure performs one-shot lazy initialization, latching on failure.
// Caller must hold f.mu.
func (f *Facade) ensure() error {
	if f.status.State == StateReady {
		return nil
	}
	if f.status.State == StateFailed {
		return tomoerrors.EmbedderUnavailableErr(fmt.Errorf("embedder initialization previously failed: %s", f.status.LastError))
	}

	f.status.State = StateInitializing
	f.status.InitAttempts++
	started := time.Now()
	f.status.LastStartedAtMs = started.UnixMilli()

	embedder, err := f.newFunc()

	finished := time.Now()
	f.status.LastFinishedAtMs = finished.UnixMilli()
	f.status.LastDurationMs = finished.Sub(started).Milliseconds()

	if err != nil {
		f.status.State = StateFailed
		f.status.LastError = err.Error()
		return err
	}

	f.inner = embedder
	f.status.State = StateReady
	f.status.LastError = ""
	return nil
}

// Available reports whether the facade is ready to embed, without
// triggering initialization.
func (f *Facade) Available(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status.State == StateReady && f.inner != nil && f.inner.Available(ctx)
}

// Embed embeds a batch of texts, lazily initializing the model on first
// call. Returns an error (never panics) if initialization has latched
// failed; callers (the Note Indexer, the Query Engine) treat this as a
// signal to skip semantic features for the current operation.
func (f *Facade) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.ensure(); err != nil {
		return nil, err
	}

	prevState := f.status.State
	f.status.State = StateBusy
	defer func() { f.status.State = prevState }()

	return f.inner.EmbedBatch(ctx, texts)
}

// ModelLabel returns the model identifier to store alongside embedding
// rows, or the empty string if the model has never successfully
// initialized.
func (f *Facade) ModelLabel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inner == nil {
		return ""
	}
	return f.inner.ModelName()
}

// SerializeVector encodes a unit-norm vector as a little-endian f32 blob.
func SerializeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, val := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(val))
	}
	return buf
}

// DeserializeVector decodes a little-endian f32 blob, validating that its
// length is a multiple of 4 bytes.
func DeserializeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embed: vector blob length %d is not a multiple of 4", len(blob))
	}
	dim := len(blob) / 4
	v := make([]float32, dim)
	for i := 0; i < dim; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v, nil
}
