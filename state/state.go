// Package state persists run reports: what a processing run was
// configured with, what it produced, and what it complained about.
// Reports are append-only records in a bbolt KV store under the
// datadir; the spatial index itself is never persisted.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/trajkit/trajkit/params"
	"github.com/trajkit/trajkit/types/track"
	"go.etcd.io/bbolt"
)

const reportsDBName = "reports.db"

var reportsBucket = []byte("reports")

// RunReport summarizes one processing run.
type RunReport struct {
	StartedAt    time.Time       `json:"started_at"`
	Elapsed      time.Duration   `json:"elapsed"`
	ConfigDigest string          `json:"config_digest"`
	Trajectories int             `json:"trajectories"`
	Points       int             `json:"points"`
	Stops        int             `json:"stops"`
	Moves        int             `json:"moves"`
	Clusters     int             `json:"clusters"`
	NoiseStops   int             `json:"noise_stops"`
	Anomalies    []track.Anomaly `json:"anomalies,omitempty"`
}

// ConfigDigest hashes the run configuration so reports produced by
// different knob settings never read as comparable.
func ConfigDigest(cfg params.Config) (string, error) {
	h, err := hashstructure.Hash(cfg, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h), nil
}

type ReportStore struct {
	DB *bbolt.DB
}

// NewReportStore opens (creating if needed) the reports DB under
// datadir. An empty datadir means params.DatadirRoot. Opening a
// writable conn takes a file lock; concurrent runs against the same
// datadir serialize here.
func NewReportStore(datadir string) (*ReportStore, error) {
	if datadir == "" {
		datadir = params.DatadirRoot
	}
	if err := os.MkdirAll(datadir, 0700); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(filepath.Join(datadir, reportsDBName), 0600, nil)
	if err != nil {
		return nil, err
	}
	return &ReportStore{DB: db}, nil
}

func (s *ReportStore) Close() error {
	return s.DB.Close()
}

func (r *RunReport) key() []byte {
	return []byte(r.StartedAt.UTC().Format(time.RFC3339Nano) + "/" + r.ConfigDigest)
}

// WriteReport appends the report, keyed by start time and config
// digest so chronological iteration falls out of bbolt's key order.
func (s *ReportStore) WriteReport(r *RunReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(reportsBucket)
		if err != nil {
			return err
		}
		return bucket.Put(r.key(), data)
	})
}

// LastReport returns the most recent report, or an error if none
// exist.
func (s *ReportStore) LastReport() (*RunReport, error) {
	buf := bytes.NewBuffer(nil)
	err := s.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(reportsBucket)
		if bucket == nil {
			return fmt.Errorf("no reports bucket")
		}
		// Value bytes are only valid inside the transaction.
		_, v := bucket.Cursor().Last()
		if v == nil {
			return fmt.Errorf("no reports")
		}
		_, err := buf.Write(v)
		return err
	})
	if err != nil {
		return nil, err
	}
	r := &RunReport{}
	if err := json.Unmarshal(buf.Bytes(), r); err != nil {
		return nil, err
	}
	return r, nil
}

// Reports returns all reports in chronological order.
func (s *ReportStore) Reports() ([]RunReport, error) {
	var out []RunReport
	err := s.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(reportsBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			r := RunReport{}
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("report %q: %w", string(k), err)
			}
			out = append(out, r)
			return nil
		})
	})
	return out, err
}
