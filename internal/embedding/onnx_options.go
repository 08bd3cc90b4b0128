package embedding

// ONNXOption configures an ONNXEmbedder.
type ONNXOption func(*onnxOptions)

type onnxOptions struct {
	tokenizer  Tokenizer
	outputName string
}

// WithTokenizer sets the tokenizer. Without it a SimpleTokenizer is used.
func WithTokenizer(t Tokenizer) ONNXOption {
	return func(o *onnxOptions) { o.tokenizer = t }
}

// WithOutputName selects the model output. "last_hidden_state" (shape 1 x tokens x dims) is
// mean-pooled over the attention mask; any other name is read as a pooled 1 x dims vector.
func WithOutputName(name string) ONNXOption {
	return func(o *onnxOptions) { o.outputName = name }
}

const tokenLevelOutput = "last_hidden_state"

func defaultONNXOptions() onnxOptions {
	return onnxOptions{tokenizer: &SimpleTokenizer{}, outputName: tokenLevelOutput}
}

// meanPool averages token vectors where the attention mask is set.
// hidden is laid out as tokens x dims.
func meanPool(hidden []float32, mask []int64, dims int) []float32 {
	out := make([]float32, dims)
	var count float32
	for tok, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[tok*dims : (tok+1)*dims]
		for i, v := range row {
			out[i] += v
		}
		count++
	}
	if count > 0 {
		for i := range out {
			out[i] /= count
		}
	}
	return out
}
