package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/qatpsim/internal/qatp"
)

type ExportData struct {
	Run     RunMetadata        `json:"run"`
	Records []qatp.CycleResult `json:"records"`
}

// ExportJSON writes a saved run and its cycle records to path.
func (s *Store) ExportJSON(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return s.WriteJSON(file, runID)
}

func (s *Store) WriteJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	records, err := s.LoadRecords(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: *meta, Records: records})
}

// ExportCSV copies the cycle records of a saved run to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	records, err := s.LoadRecords(runID)
	if err != nil {
		return err
	}
	return WriteCSV(w, records)
}
