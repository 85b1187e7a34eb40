// Package ledger persists per-run cost entries as a YAML file and
// answers budget queries by re-reading it, so spend recorded by other
// processes is always visible.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/msageha/conductor/internal/lock"
	"github.com/msageha/conductor/internal/yamlio"
)

const fileName = "cost_ledger.yaml"

type Entry struct {
	ID         string  `yaml:"id"`
	NodeID     string  `yaml:"node_id"`
	Step       string  `yaml:"step"`
	Cost       float64 `yaml:"cost"`
	Note       string  `yaml:"note,omitempty"`
	RecordedAt string  `yaml:"recorded_at"`
}

type ledgerFile struct {
	SchemaVersion int     `yaml:"schema_version"`
	FileType      string  `yaml:"file_type"`
	Entries       []Entry `yaml:"entries"`
}

// Ledger is the append-only cost record for a single run. Writes go
// through the atomic YAML path; reads always hit the file so that
// out-of-band appends count against the budget.
type Ledger struct {
	runDir string
	path   string
	locks  *lock.MutexMap

	mu       sync.Mutex
	lastHash string
}

func New(runDir string) *Ledger {
	return &Ledger{
		runDir: runDir,
		path:   filepath.Join(runDir, fileName),
		locks:  lock.NewMutexMap(),
	}
}

func (l *Ledger) Path() string {
	return l.path
}

// Record appends a cost entry and persists the ledger atomically.
func (l *Ledger) Record(nodeID, step string, cost float64, note string) (Entry, error) {
	l.locks.Lock(l.path)
	defer l.locks.Unlock(l.path)

	lf, err := l.load()
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:         "cost-" + uuid.NewString(),
		NodeID:     nodeID,
		Step:       step,
		Cost:       cost,
		Note:       note,
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	lf.Entries = append(lf.Entries, entry)

	content, err := yamlv3.Marshal(lf)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal ledger: %w", err)
	}
	// Store the hash before the rename lands so the watcher never sees
	// our own write as external.
	prev := l.swapLastHash(hashContent(content))
	if err := yamlio.AtomicWriteRaw(l.path, content); err != nil {
		l.swapLastHash(prev)
		return Entry{}, fmt.Errorf("write ledger: %w", err)
	}

	return entry, nil
}

// Total re-reads the ledger file and sums all entries.
func (l *Ledger) Total() (float64, error) {
	l.locks.Lock(l.path)
	defer l.locks.Unlock(l.path)

	lf, err := l.load()
	if err != nil {
		return 0, err
	}

	var total float64
	for _, e := range lf.Entries {
		total += e.Cost
	}
	return total, nil
}

// Entries re-reads the ledger file and returns all entries in append order.
func (l *Ledger) Entries() ([]Entry, error) {
	l.locks.Lock(l.path)
	defer l.locks.Unlock(l.path)

	lf, err := l.load()
	if err != nil {
		return nil, err
	}
	return lf.Entries, nil
}

// load reads the ledger from disk. A missing file yields an empty
// ledger. A corrupted file is quarantined and treated as empty so a
// damaged ledger never wedges the run.
func (l *Ledger) load() (*ledgerFile, error) {
	content, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return emptyLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var lf ledgerFile
	if err := yamlv3.Unmarshal(content, &lf); err != nil {
		if rerr := yamlio.RecoverCorruptedFile(l.runDir, l.path, "cost_ledger"); rerr != nil {
			return nil, fmt.Errorf("recover corrupted ledger: %w", rerr)
		}
		return emptyLedger(), nil
	}
	if err := yamlio.ValidateSchemaHeaderFromBytes(content, "cost_ledger"); err != nil {
		if rerr := yamlio.RecoverCorruptedFile(l.runDir, l.path, "cost_ledger"); rerr != nil {
			return nil, fmt.Errorf("recover corrupted ledger: %w", rerr)
		}
		return emptyLedger(), nil
	}

	return &lf, nil
}

func emptyLedger() *ledgerFile {
	return &ledgerFile{
		SchemaVersion: yamlio.CurrentSchemaVersion,
		FileType:      "cost_ledger",
		Entries:       []Entry{},
	}
}

func (l *Ledger) swapLastHash(h string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.lastHash
	l.lastHash = h
	return prev
}

// changedExternally reports whether the file on disk no longer matches
// the last content this process wrote. The current hash replaces the
// stored one so a single out-of-band write produces a single note.
func (l *Ledger) changedExternally() bool {
	content, err := os.ReadFile(l.path)
	if err != nil {
		return false
	}
	current := hashContent(content)

	l.mu.Lock()
	defer l.mu.Unlock()
	if current == l.lastHash {
		return false
	}
	l.lastHash = current
	return true
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
