package main

import (
	"encoding/json"
	"os"
)

// encodeJSONToStdout writes value as indented JSON for --json output.
func encodeJSONToStdout(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
