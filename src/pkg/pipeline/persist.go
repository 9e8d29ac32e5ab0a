package pipeline

import (
	"encoding/json"
	"fmt"
	"path"

	"receipt-imaging/src/pkg/storage"
)

func storeArtifact(store storage.Storage, runName string, name string, data []byte) (string, error) {
	return store.Save(path.Join(runName, name), data)
}

func storeJSON(store storage.Storage, runName string, name string, value any) (string, error) {
	data, marshalErr := json.MarshalIndent(value, "", "  ")
	if marshalErr != nil {
		return "", fmt.Errorf("marshal %s: %w", name, marshalErr)
	}

	return store.Save(path.Join(runName, name), data)
}
