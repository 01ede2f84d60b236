// Package storage persists headless runs: one directory per run holding
// metadata.json and frames.csv.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/morphrace/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Mode       string             `json:"mode"`
	Morphology string             `json:"morphology"`
	Opponent   string             `json:"opponent,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Script     string             `json:"script"`
	Steps      int                `json:"steps"`
	Completed  bool               `json:"completed"`
	Winner     int                `json:"winner,omitempty"`
	Laps       int                `json:"laps,omitempty"`
	TotalLaps  int                `json:"total_laps,omitempty"`
	Splits     []float64          `json:"splits,omitempty"`
	Policy     bool               `json:"policy"`
	Metrics    map[string]float64 `json:"metrics"`
}

// FrameRecord is one creature on one frame.
type FrameRecord struct {
	Step         int     `csv:"step"`
	Time         float64 `csv:"time"`
	Elapsed      float64 `csv:"elapsed"`
	Creature     int     `csv:"creature"`
	X            float64 `csv:"x"`
	Y            float64 `csv:"y"`
	Z            float64 `csv:"z"`
	Heading      float64 `csv:"heading"`
	Speed        float64 `csv:"speed"`
	TotalHeading float64 `csv:"total_heading"`
	Throttle     float64 `csv:"throttle"`
	Turn         float64 `csv:"turn"`
	Lap          int     `csv:"lap"`
	Completed    bool    `csv:"completed"`
	Winner       int     `csv:"winner"`
	Keys         string  `csv:"keys"`
}

// Records flattens a run into frame records, creatures numbered from 1.
func Records(result *sim.Result) []*FrameRecord {
	records := make([]*FrameRecord, 0, len(result.Frames)*2)
	for i, f := range result.Frames {
		var keys string
		if i > 0 && i-1 < len(result.Keys) {
			keys = strings.Join(result.Keys[i-1], "+")
		}
		t := 0.0
		if i < len(result.Times) {
			t = result.Times[i]
		}
		for ci, c := range f.Creatures {
			records = append(records, &FrameRecord{
				Step:         i,
				Time:         t,
				Elapsed:      f.Time,
				Creature:     ci + 1,
				X:            c.Position.X,
				Y:            c.Position.Y,
				Z:            c.Position.Z,
				Heading:      c.Heading,
				Speed:        c.Speed,
				TotalHeading: c.TotalHeading,
				Throttle:     c.Control.Throttle,
				Turn:         c.Control.Turn,
				Lap:          f.Lap,
				Completed:    f.Completed,
				Winner:       f.Winner,
				Keys:         keys,
			})
		}
	}
	return records
}

// Save writes a run and returns its ID. meta.ID and meta.Timestamp are
// filled in; outcome fields are taken from the final frame.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%s_%d", meta.Mode, meta.Morphology, now.UnixNano())
	meta.Timestamp = now
	meta.Steps = result.StepsTaken
	meta.Completed = result.Completed
	meta.Metrics = result.Metrics
	final := result.Final()
	meta.Winner = final.Winner
	meta.Laps = final.Lap
	meta.TotalLaps = final.TotalLaps
	meta.Splits = final.Splits

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

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := gocsv.MarshalFile(Records(result), csvFile); err != nil {
		return "", fmt.Errorf("write frames: %w", err)
	}

	return meta.ID, nil
}

// List returns every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]*FrameRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records := []*FrameRecord{}
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	return records, nil
}

// Creature filters records down to one creature (numbered from 1).
func Creature(records []*FrameRecord, creature int) []*FrameRecord {
	out := make([]*FrameRecord, 0, len(records))
	for _, r := range records {
		if r.Creature == creature {
			out = append(out, r)
		}
	}
	return out
}
