package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pullLog holds two Kerachole windows. The first mitigates one boss attack,
// the second mitigates nothing.
const pullLog = `{"timestamp":1000,"type":"pull","duration":60000}
{"timestamp":2000,"type":"statusApply","source":"1","target":"1","status":2618}
{"timestamp":3000,"type":"action","source":"100","target":"1","action":26653}
{"timestamp":4000,"type":"action","source":"1","target":"100","action":24312}
{"timestamp":17000,"type":"statusRemove","source":"1","target":"1","status":2618}
{"timestamp":30000,"type":"statusApply","source":"1","target":"1","status":2618}
{"timestamp":45000,"type":"statusRemove","source":"1","target":"1","status":2618}
`

// cleanLog holds a single Kerachole window that mitigates an attack.
const cleanLog = `{"timestamp":1000,"type":"pull","duration":60000}
{"timestamp":2000,"type":"statusApply","source":"1","target":"1","status":2618}
{"timestamp":3000,"type":"action","source":"100","target":"1","action":26653}
{"timestamp":17000,"type":"statusRemove","source":"1","target":"1","status":2618}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// writeConfig writes a kerachole config whose single encounter reads the
// given event logs.
func writeConfig(t *testing.T, dir string, logs ...string) string {
	t.Helper()

	var sources strings.Builder
	for _, l := range logs {
		sources.WriteString("      - " + l + "\n")
	}

	config := `actor: "1"
foes: ["100"]
encounters:
  - name: pull-1
    sources:
` + sources.String() + `modules:
  - name: kerachole
    preset: sge-kerachole
`
	return writeFile(t, dir, "config.yaml", config)
}
