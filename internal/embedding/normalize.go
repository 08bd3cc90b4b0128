package embedding

import (
	"fmt"

	"github.com/hyperjump/resumatch/pkg/utils"
)

// NormalizeL2Slice normalizes the slice in place to unit L2 norm.
func NormalizeL2Slice(x []float32) {
	utils.NormalizeL2(x)
}

// finalize checks the dimension of a provider vector and normalizes it in place.
func finalize(v []float32, dimensions int) ([]float32, error) {
	if len(v) != dimensions {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(v), dimensions)
	}
	NormalizeL2Slice(v)
	return v, nil
}
