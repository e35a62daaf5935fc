package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/skillswap/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		wantErr    bool
	}{
		{
			name:       "basic transcript",
			transcript: internal.CreateTestTranscript(),
			wantErr:    false,
		},
		{
			name:       "empty transcript",
			transcript: &internal.Transcript{Participant: internal.UserRef{ID: "u-empty"}},
			wantErr:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONExporter{}

			err := exporter.Export(tt.transcript, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := buf.String()
				var got internal.Transcript
				if err := json.Unmarshal([]byte(output), &got); err != nil {
					t.Errorf("Output is not valid JSON: %v\nOutput: %s", err, output)
					return
				}

				if got.Participant.ID != tt.transcript.Participant.ID {
					t.Errorf("Participant.ID = %q, want %q", got.Participant.ID, tt.transcript.Participant.ID)
				}
				if len(got.Messages) != len(tt.transcript.Messages) {
					t.Errorf("len(Messages) = %d, want %d", len(got.Messages), len(tt.transcript.Messages))
				}
				if len(got.Sessions) != len(tt.transcript.Sessions) {
					t.Errorf("len(Sessions) = %d, want %d", len(got.Sessions), len(tt.transcript.Sessions))
				}

				if !strings.Contains(output, "  ") {
					t.Errorf("Output should be pretty-printed with indentation")
				}
			}
		})
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	exporter := &JSONExporter{}
	if got := exporter.Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
