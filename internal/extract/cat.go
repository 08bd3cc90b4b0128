package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractWithCat handles OpenDocument text and RTF resumes.
func extractWithCat(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract document: %w", err)
	}
	return text, nil
}
