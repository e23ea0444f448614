// Package encoder is scene's vector encoder: a process-wide, lazily
// initialized, thread-safe function from either an image or a short
// text query to a 512-float unit-norm vector.
package encoder

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/sceneapp/scene/internal/models"
)

const textInputLen = 77 // CLIP's standard text context length

// Config names the on-disk model artifacts the encoder loads.
type Config struct {
	ONNXLibPath   string
	ModelPath     string
	TokenizerPath string
	CPUOnly       bool
}

// Encoder holds the ONNX sessions for both towers plus the tensors they
// read from and write to. All exported methods are safe for concurrent
// use from multiple worker goroutines once initialized.
type Encoder struct {
	mu sync.Mutex

	tokenizer *textTokenizer

	visionSession *ort.AdvancedSession
	visionInput   *ort.Tensor[float32]
	visionOutput  *ort.Tensor[float32]

	textSession *ort.AdvancedSession
	textIDs     *ort.Tensor[int64]
	textMask    *ort.Tensor[int64]
	textOutput  *ort.Tensor[float32]

	closeOnce sync.Once
}

var (
	globalMu      sync.Mutex
	globalEncoder *Encoder
	globalInitErr error
	globalReady   atomic.Bool
)

// Get returns the process-wide Encoder, loading it on first call under
// a mutex (double-checked initialization) and reusing the same handle
// on every subsequent call, including concurrent ones from multiple
// worker goroutines.
func Get(cfg Config) (*Encoder, error) {
	if globalReady.Load() {
		return globalEncoder, globalInitErr
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	if globalReady.Load() {
		return globalEncoder, globalInitErr
	}

	enc, err := newEncoder(cfg)
	globalEncoder, globalInitErr = enc, err
	globalReady.Store(true)
	return globalEncoder, globalInitErr
}

func newEncoder(cfg Config) (*Encoder, error) {
	ort.SetSharedLibraryPath(cfg.ONNXLibPath)

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("init onnx environment: %w", err)
	}

	tokenizer, err := newTextTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	visionInput, err := ort.NewTensor(ort.NewShape(1, 3, visionInputSize, visionInputSize), make([]float32, 3*visionInputSize*visionInputSize))
	if err != nil {
		return nil, fmt.Errorf("create vision input tensor: %w", err)
	}
	visionOutput, err := ort.NewTensor(ort.NewShape(1, models.EmbeddingDims), make([]float32, models.EmbeddingDims))
	if err != nil {
		return nil, fmt.Errorf("create vision output tensor: %w", err)
	}
	visionSession, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{"pixel_values"},
		[]string{"image_embeds"},
		[]ort.ArbitraryTensor{visionInput},
		[]ort.ArbitraryTensor{visionOutput},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create vision session: %w", err)
	}

	textIDs, err := ort.NewTensor(ort.NewShape(1, textInputLen), make([]int64, textInputLen))
	if err != nil {
		return nil, fmt.Errorf("create text ids tensor: %w", err)
	}
	textMask, err := ort.NewTensor(ort.NewShape(1, textInputLen), make([]int64, textInputLen))
	if err != nil {
		return nil, fmt.Errorf("create text mask tensor: %w", err)
	}
	textOutput, err := ort.NewTensor(ort.NewShape(1, models.EmbeddingDims), make([]float32, models.EmbeddingDims))
	if err != nil {
		return nil, fmt.Errorf("create text output tensor: %w", err)
	}
	textSession, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"text_embeds"},
		[]ort.ArbitraryTensor{textIDs, textMask},
		[]ort.ArbitraryTensor{textOutput},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create text session: %w", err)
	}

	return &Encoder{
		tokenizer:     tokenizer,
		visionSession: visionSession,
		visionInput:   visionInput,
		visionOutput:  visionOutput,
		textSession:   textSession,
		textIDs:       textIDs,
		textMask:      textMask,
		textOutput:    textOutput,
	}, nil
}

// EncodeImage produces a 512-float unit-norm embedding of the image
// file at path. Safe to call from multiple goroutines; each call holds
// the encoder's lock for the duration of one inference pass, since the
// underlying ONNX tensors are reused buffers rather than per-call
// allocations.
func (e *Encoder) EncodeImage(path string) ([]float32, error) {
	tensor, err := preprocessImage(path)
	if err != nil {
		return nil, fmt.Errorf("preprocess image: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.visionInput.GetData(), tensor)
	if err := e.visionSession.Run(); err != nil {
		return nil, fmt.Errorf("vision inference: %w", err)
	}

	out := make([]float32, models.EmbeddingDims)
	copy(out, e.visionOutput.GetData())
	normalize(out)
	return out, nil
}

// EncodeText produces a 512-float unit-norm embedding of a short text
// query. Deterministic for a fixed model.
func (e *Encoder) EncodeText(text string) ([]float32, error) {
	inputIDs, attentionMask := e.tokenizer.encode(text, textInputLen)

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.textIDs.GetData(), inputIDs)
	copy(e.textMask.GetData(), attentionMask)
	if err := e.textSession.Run(); err != nil {
		return nil, fmt.Errorf("text inference: %w", err)
	}

	out := make([]float32, models.EmbeddingDims)
	copy(out, e.textOutput.GetData())
	normalize(out)
	return out, nil
}

// Close releases the ONNX sessions, tensors, and environment. Safe to
// call multiple times.
func (e *Encoder) Close() {
	e.closeOnce.Do(func() {
		e.visionSession.Destroy()
		e.visionInput.Destroy()
		e.visionOutput.Destroy()
		e.textSession.Destroy()
		e.textIDs.Destroy()
		e.textMask.Destroy()
		e.textOutput.Destroy()
		e.tokenizer.Close()
		ort.DestroyEnvironment()
	})
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := float32(math.Sqrt(sum))
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] /= norm
	}
}
