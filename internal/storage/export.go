package storage

import (
	"encoding/json"
	"io"

	"github.com/gocarina/gocsv"
)

type ExportData struct {
	Run    RunMetadata    `json:"run"`
	Frames []*FrameRecord `json:"frames"`
}

// ExportJSON writes a run and its frames as one indented JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, frames []*FrameRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: *meta, Frames: frames})
}

// ExportCSV writes frames with a header row.
func ExportCSV(w io.Writer, frames []*FrameRecord) error {
	return gocsv.Marshal(frames, w)
}
