package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile serialises the packet to <outDir>/<task_id>/evidence.json,
// creating directories as needed, and returns the written path.
func WriteFile(p *Packet, outDir string) (string, error) {
	dir := filepath.Join(outDir, p.TaskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create evidence dir: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal evidence: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, "evidence.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write evidence: %w", err)
	}
	return path, nil
}
