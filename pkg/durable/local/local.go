// Package local provides a Badger-backed implementation of the durable
// process-instance engine. Instance records survive process restarts on the
// local disk, which is what gives restart-resume semantics without an
// external orchestrator.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/newswire/newswire/pkg/durable"
	"github.com/newswire/newswire/pkg/logger"
)

// Config holds configuration for the local engine.
type Config struct {
	Path       string
	SyncWrites bool
	// InMemory runs Badger without touching disk. Used in tests.
	InMemory bool
}

// Engine implements durable.Engine using Badger.
type Engine struct {
	db  *badger.DB
	log logger.Logger
}

// New opens (or creates) the instance store.
func New(config *Config, log logger.Logger) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if !config.InMemory && config.Path == "" {
		return nil, fmt.Errorf("engine path cannot be empty")
	}
	if log == nil {
		log = logger.Global()
	}

	opts := badger.DefaultOptions(config.Path)
	opts.SyncWrites = config.SyncWrites
	opts.InMemory = config.InMemory
	if config.InMemory {
		opts.Dir = ""
		opts.ValueDir = ""
	}
	// Badger logs through its own logger by default; keep it quiet and let
	// the engine do its own logging.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &durable.UnavailableError{Cause: err}
	}

	return &Engine{
		db:  db,
		log: log.WithComponent("durable"),
	}, nil
}

func instanceKey(id string) []byte {
	return []byte(fmt.Sprintf("instance:%s", id))
}

func serialize(inst *durable.Instance) ([]byte, error) {
	data, err := json.Marshal(inst)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize instance: %w", err)
	}
	return data, nil
}

func deserialize(data []byte, inst *durable.Instance) error {
	if err := json.Unmarshal(data, inst); err != nil {
		return fmt.Errorf("failed to deserialize instance: %w", err)
	}
	return nil
}

// Create registers a new running instance under the given id.
func (e *Engine) Create(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("instance id cannot be empty")
	}

	now := time.Now().UTC()
	return e.db.Update(func(txn *badger.Txn) error {
		existing, err := getInTxn(txn, id)
		if err != nil && !durable.IsNotFoundError(err) {
			return err
		}
		if existing != nil && existing.Status == durable.StatusRunning {
			return &durable.AlreadyExistsError{ID: id}
		}

		data, err := serialize(&durable.Instance{
			ID:        id,
			Status:    durable.StatusRunning,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		return txn.Set(instanceKey(id), data)
	})
}

// Describe returns the status of the instance with the given id.
func (e *Engine) Describe(ctx context.Context, id string) (durable.Status, error) {
	var inst *durable.Instance

	err := e.db.View(func(txn *badger.Txn) error {
		var err error
		inst, err = getInTxn(txn, id)
		return err
	})
	if err != nil {
		return durable.StatusUnknown, err
	}
	return inst.Status, nil
}

// Cancel marks a running instance cancelled. Terminal and missing instances
// are left untouched.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	return e.db.Update(func(txn *badger.Txn) error {
		inst, err := getInTxn(txn, id)
		if err != nil {
			if durable.IsNotFoundError(err) {
				return nil
			}
			return err
		}
		if inst.Status.Terminal() {
			return nil
		}

		now := time.Now().UTC()
		inst.Status = durable.StatusCancelled
		inst.UpdatedAt = now
		inst.EndedAt = &now

		data, err := serialize(inst)
		if err != nil {
			return err
		}
		return txn.Set(instanceKey(id), data)
	})
}

func getInTxn(txn *badger.Txn, id string) (*durable.Instance, error) {
	item, err := txn.Get(instanceKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, &durable.NotFoundError{ID: id}
		}
		return nil, err
	}

	var inst durable.Instance
	if err := item.Value(func(val []byte) error {
		return deserialize(val, &inst)
	}); err != nil {
		return nil, err
	}
	return &inst, nil
}

// Close closes the instance store.
func (e *Engine) Close() error {
	return e.db.Close()
}
