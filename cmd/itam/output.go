package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

var stdout io.Writer = os.Stdout

func writeJSONLine(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitBackend, fmt.Errorf("json encode: %w", err))
	}
	return nil
}

func stringsTrim(s string) string {
	return strings.TrimSpace(s)
}
