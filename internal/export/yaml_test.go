package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/skillswap/internal"
	"gopkg.in/yaml.v3"
)

func TestYAMLExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
	}{
		{
			name:       "basic transcript",
			transcript: internal.CreateTestTranscript(),
		},
		{
			name:       "empty transcript",
			transcript: &internal.Transcript{Participant: internal.UserRef{ID: "u-empty"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &YAMLExporter{}

			if err := exporter.Export(tt.transcript, &buf); err != nil {
				t.Fatalf("YAMLExporter.Export() error = %v", err)
			}

			output := buf.String()
			var doc map[string]interface{}
			if err := yaml.Unmarshal([]byte(output), &doc); err != nil {
				t.Errorf("Output is not valid YAML: %v\nOutput: %s", err, output)
				return
			}

			if !strings.Contains(output, tt.transcript.Participant.ID) {
				t.Errorf("Output should contain participant ID %q", tt.transcript.Participant.ID)
			}
			for _, key := range []string{"participant", "messages", "sessions", "metadata"} {
				if _, ok := doc[key]; !ok {
					t.Errorf("Output missing key %q", key)
				}
			}
		})
	}
}

func TestYAMLExporter_Extension(t *testing.T) {
	exporter := &YAMLExporter{}
	if got := exporter.Extension(); got != "yaml" {
		t.Errorf("YAMLExporter.Extension() = %v, want yaml", got)
	}
}
