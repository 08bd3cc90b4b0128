package embedding

import (
	"reflect"
	"testing"
)

func TestMeanPool(t *testing.T) {
	hidden := []float32{
		1, 2, // token 0
		3, 4, // token 1
		100, 100, // padding
	}
	got := meanPool(hidden, []int64{1, 1, 0}, 2)
	if want := []float32{2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("meanPool = %v, want %v", got, want)
	}
	if got := meanPool(hidden, []int64{0, 0, 0}, 2); !reflect.DeepEqual(got, []float32{0, 0}) {
		t.Errorf("empty mask = %v", got)
	}
}

func TestONNXOptions(t *testing.T) {
	o := defaultONNXOptions()
	if o.outputName != tokenLevelOutput {
		t.Errorf("default output = %s", o.outputName)
	}
	tok := &WordPieceTokenizer{}
	WithTokenizer(tok)(&o)
	WithOutputName("sentence_embedding")(&o)
	if o.tokenizer != tok || o.outputName != "sentence_embedding" {
		t.Errorf("options not applied: %+v", o)
	}
}
