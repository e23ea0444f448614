package encoder

import (
	"github.com/daulet/tokenizers"
)

// textTokenizer wraps a loaded tokenizer and pads/truncates to a fixed
// sequence length so it can feed a fixed-shape ONNX input tensor.
type textTokenizer struct {
	tk *tokenizers.Tokenizer
}

func newTextTokenizer(path string) (*textTokenizer, error) {
	tk, err := tokenizers.FromFile(path)
	if err != nil {
		return nil, err
	}
	return &textTokenizer{tk: tk}, nil
}

// encode returns input_ids and attention_mask, both length maxLen.
func (t *textTokenizer) encode(text string, maxLen int) (inputIDs, attentionMask []int64) {
	ids, _ := t.tk.Encode(text, true)

	inputIDs = make([]int64, maxLen)
	attentionMask = make([]int64, maxLen)

	for i := 0; i < len(ids) && i < maxLen; i++ {
		inputIDs[i] = int64(ids[i])
		attentionMask[i] = 1
	}

	return inputIDs, attentionMask
}

func (t *textTokenizer) Close() {
	if t.tk != nil {
		t.tk.Close()
	}
}
