package templating

import (
	"fmt"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// ValidateDocument checks that content parses in the
// format implied by the extension of path. JSON and YAML
// are recognized; other extensions are accepted as is.
func ValidateDocument(path string, content []byte) error {
	var (
		doc interface{}
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(content, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &doc)
	default:
		return nil
	}

	if err != nil {
		return fmt.Errorf(
			"%w: %s: %w", ErrInvalidDocument, path, err,
		)
	}

	return nil
}
