package embedder

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/bobbin-dev/bobbin/internal/bobbinerr"
	"github.com/daulet/tokenizers"
	onnxruntime "github.com/yalue/onnxruntime_go"
)

// onnxEmbedder wraps an ONNX Runtime session and a Hugging Face tokenizer,
// Safe for
// concurrent inference: a single mutex serializes session.Run calls, since
// onnxruntime_go's DynamicAdvancedSession is not documented as safe for
// concurrent use from multiple goroutines.
type onnxEmbedder struct {
	mu         sync.Mutex
	session    *onnxruntime.DynamicAdvancedSession
	tokenizer  *tokenizers.Tokenizer
	model      string
	dimension  int
	maxSeqLen  int
	inputNames []string
	outName    string
}

const defaultMaxTokens = 512

// NewONNXEmbedder loads an ONNX model and its tokenizer from the
// directory resolveModel picks for cfg (expects model.onnx and
// tokenizer.json), per the registry contract in registry.go.
func NewONNXEmbedder(cfg Config) (Embedder, error) {
	dir, dimension, maxSeqLen, err := resolveModel(cfg)
	if err != nil {
		return nil, bobbinerr.New(bobbinerr.KindEmbedderFailure, "embedder.New", err)
	}
	if maxSeqLen == 0 {
		maxSeqLen = defaultMaxTokens
	}

	onnxPath := filepath.Join(dir, "model.onnx")
	tokenizerPath := filepath.Join(dir, "tokenizer.json")

	tok, err := tokenizers.FromFile(tokenizerPath)
	if err != nil {
		return nil, bobbinerr.New(bobbinerr.KindEmbedderFailure, "embedder.New", fmt.Errorf("loading tokenizer: %w", err))
	}

	inputs, outputs, err := onnxruntime.GetInputOutputInfo(onnxPath)
	if err != nil {
		tok.Close()
		return nil, bobbinerr.New(bobbinerr.KindEmbedderFailure, "embedder.New", fmt.Errorf("reading model info: %w", err))
	}
	inputNames := make([]string, len(inputs))
	for i := range inputs {
		inputNames[i] = inputs[i].Name
	}
	outputNames := make([]string, len(outputs))
	for i := range outputs {
		outputNames[i] = outputs[i].Name
	}

	session, err := onnxruntime.NewDynamicAdvancedSession(onnxPath, inputNames, outputNames, nil)
	if err != nil {
		tok.Close()
		return nil, bobbinerr.New(bobbinerr.KindEmbedderFailure, "embedder.New", fmt.Errorf("creating session: %w", err))
	}

	e := &onnxEmbedder{
		session:    session,
		tokenizer:  tok,
		model:      cfg.Model,
		dimension:  dimension,
		maxSeqLen:  maxSeqLen,
		inputNames: inputNames,
		outName:    outputNames[0],
	}

	if e.dimension == 0 {
		// Dimension is not a registry constant; detect it by probing. The
		// probe runs with the 384-wide default output shape, so only a
		// model of that width probes successfully.
		vecs, err := e.EmbedBatch(context.Background(), []string{"bobbin dimension probe"})
		if err != nil {
			session.Destroy()
			tok.Close()
			return nil, bobbinerr.New(bobbinerr.KindEmbedderFailure, "embedder.New", fmt.Errorf("probing dimension: %w", err))
		}
		e.dimension = len(vecs[0])
	}

	return e, nil
}

func (e *onnxEmbedder) Dimension() int  { return e.dimension }
func (e *onnxEmbedder) ModelName() string { return e.model }

func (e *onnxEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tokenizer.Close()
	e.session.Destroy()
	return nil
}

func (e *onnxEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *onnxEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	select {
	case <-ctx.Done():
		return nil, bobbinerr.New(bobbinerr.KindCancelled, "embedder.EmbedBatch", ctx.Err())
	default:
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	allIDs := make([][]int64, len(texts))
	allMasks := make([][]int64, len(texts))
	maxLen := 0
	for i, text := range texts {
		enc := e.tokenizer.EncodeWithOptions(text, true,
			tokenizers.WithReturnAttentionMask(),
		)
		ids := make([]int64, len(enc.IDs))
		mask := make([]int64, len(enc.AttentionMask))
		for j := range enc.IDs {
			ids[j] = int64(enc.IDs[j])
			mask[j] = int64(enc.AttentionMask[j])
		}
		if len(ids) > e.maxSeqLen {
			ids = ids[:e.maxSeqLen]
			mask = mask[:e.maxSeqLen]
		}
		allIDs[i] = ids
		allMasks[i] = mask
		if len(ids) > maxLen {
			maxLen = len(ids)
		}
	}

	batch := len(texts)
	inputIDs := make([]int64, batch*maxLen)
	attnMask := make([]int64, batch*maxLen)
	for i := range allIDs {
		for j := 0; j < maxLen; j++ {
			idx := i*maxLen + j
			if j < len(allIDs[i]) {
				inputIDs[idx] = allIDs[i][j]
				attnMask[idx] = allMasks[i][j]
			}
		}
	}

	shape := onnxruntime.NewShape(int64(batch), int64(maxLen))
	inputTensor, err := onnxruntime.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer inputTensor.Destroy()
	maskTensor, err := onnxruntime.NewTensor(shape, attnMask)
	if err != nil {
		return nil, fmt.Errorf("mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	outShape := onnxruntime.NewShape(int64(batch), int64(maxLen), int64(dimensionOrDefault(e.dimension)))
	outTensor, err := onnxruntime.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer outTensor.Destroy()

	inputs := []onnxruntime.Value{inputTensor, maskTensor}
	if len(e.inputNames) > 2 {
		typeIDs := make([]int64, batch*maxLen)
		typeTensor, err := onnxruntime.NewTensor(shape, typeIDs)
		if err != nil {
			return nil, fmt.Errorf("type-id tensor: %w", err)
		}
		defer typeTensor.Destroy()
		inputs = append(inputs, typeTensor)
	}

	if err := e.session.Run(inputs, []onnxruntime.Value{outTensor}); err != nil {
		return nil, fmt.Errorf("running model: %w", err)
	}

	return meanPool(outTensor.GetData(), attnMask, batch, maxLen, dimensionOrDefault(e.dimension)), nil
}

func dimensionOrDefault(d int) int {
	if d > 0 {
		return d
	}
	return 384
}

// meanPool applies attention-mask-weighted mean pooling over the token
// dimension, the standard sentence-embedding reduction for BERT-family
// encoders, then L2-normalizes each resulting vector.
func meanPool(hidden []float32, mask []int64, batch, seqLen, dim int) [][]float32 {
	out := make([][]float32, batch)
	for b := 0; b < batch; b++ {
		vec := make([]float32, dim)
		var count float32
		for t := 0; t < seqLen; t++ {
			if mask[b*seqLen+t] == 0 {
				continue
			}
			count++
			base := (b*seqLen + t) * dim
			for d := 0; d < dim; d++ {
				vec[d] += hidden[base+d]
			}
		}
		if count > 0 {
			for d := range vec {
				vec[d] /= count
			}
		}
		normalize(vec)
		out[b] = vec
	}
	return out
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / sqrt64(sum))
	for i := range v {
		v[i] *= norm
	}
}

func sqrt64(x float64) float64 {
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 20; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}
