package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/qatpsim/internal/config"
	"github.com/san-kum/qatpsim/internal/experiment"
	"github.com/san-kum/qatpsim/internal/qatp"
)

const (
	metadataFile = "metadata.json"
	cyclesFile   = "cycles.csv"
)

var ErrInvalidRunID = errors.New("invalid run id")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Preset    string             `json:"preset,omitempty"`
	Strategy  string             `json:"strategy"`
	Input     float64            `json:"input"`
	Cycles    int                `json:"cycles"`
	Config    *config.Config     `json:"config"`
	Initial   qatp.Snapshot      `json:"initial"`
	Final     qatp.Snapshot      `json:"final"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run under a fresh id. The caller fills in the descriptive
// fields of meta; id, timestamp, snapshots and metrics come from result.
func (s *Store) Save(meta RunMetadata, result *experiment.Result) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now().UTC()
	meta.Cycles = len(result.Records)
	meta.Initial = result.Initial
	meta.Final = result.Final()
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, cyclesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, result.Records); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// Latest returns the most recently saved run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs in %s", s.baseDir)
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadRecords(runID string) ([]qatp.CycleResult, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(dir, cyclesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadCSV(file)
}

func (s *Store) runDir(runID string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

var fixedColumns = []string{
	"cycle", "input", "delivered", "released", "propagated",
	"activated", "tunneled", "battery_energy", "condensate_energy",
}

// WriteCSV writes one row per cycle followed by one column per chain node.
func WriteCSV(w io.Writer, records []qatp.CycleResult) error {
	cw := csv.NewWriter(w)

	nodes := 0
	if len(records) > 0 {
		nodes = len(records[0].Snapshot.ExcitonChainState)
	}
	header := append([]string(nil), fixedColumns...)
	for i := 0; i < nodes; i++ {
		header = append(header, fmt.Sprintf("chain_%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Cycle),
			formatFloat(r.Input),
			formatFloat(r.Delivered),
			formatFloat(r.Released),
			formatFloat(r.Propagated),
			strconv.FormatBool(r.Activated),
			strconv.FormatBool(r.Tunneled),
			formatFloat(r.Snapshot.BatteryEnergy),
			formatFloat(r.Snapshot.CondensateEnergy),
		}
		for _, v := range r.Snapshot.ExcitonChainState {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ReadCSV(r io.Reader) ([]qatp.CycleResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return []qatp.CycleResult{}, nil
	}

	records := make([]qatp.CycleResult, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (qatp.CycleResult, error) {
	var r qatp.CycleResult
	if len(row) < len(fixedColumns) {
		return r, fmt.Errorf("expected at least %d fields, got %d", len(fixedColumns), len(row))
	}

	var err error
	if r.Cycle, err = strconv.Atoi(row[0]); err != nil {
		return r, err
	}
	floats := []*float64{&r.Input, &r.Delivered, &r.Released, &r.Propagated}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(row[1+i], 64); err != nil {
			return r, err
		}
	}
	if r.Activated, err = strconv.ParseBool(row[5]); err != nil {
		return r, err
	}
	if r.Tunneled, err = strconv.ParseBool(row[6]); err != nil {
		return r, err
	}
	if r.Snapshot.BatteryEnergy, err = strconv.ParseFloat(row[7], 64); err != nil {
		return r, err
	}
	if r.Snapshot.CondensateEnergy, err = strconv.ParseFloat(row[8], 64); err != nil {
		return r, err
	}

	r.Snapshot.ExcitonChainState = make([]float64, 0, len(row)-len(fixedColumns))
	for _, field := range row[len(fixedColumns):] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return r, err
		}
		r.Snapshot.ExcitonChainState = append(r.Snapshot.ExcitonChainState, v)
	}
	r.Snapshot.NQPUState = r.Activated
	return r, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
