// Package service provides the business logic layer (use cases):
// the client record store, the query engine and the lifecycle controller.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/boddenberg/go-entulho/internal/domain"
	"github.com/boddenberg/go-entulho/internal/infra/observability"
	"github.com/boddenberg/go-entulho/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var storeTracer = otel.Tracer("service/store")

// ClientStore is the in-memory client collection, mirrored in full to one
// named slot after every mutation. It is created once by main and injected
// wherever records are read or changed.
type ClientStore struct {
	mu      sync.Mutex
	records []domain.ClientRecord
	warning string

	slots   port.SlotStore
	key     string
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewClientStore creates an empty store bound to a slot. Call Load before use.
func NewClientStore(slots port.SlotStore, key string, metrics *observability.Metrics, logger *zap.Logger) *ClientStore {
	return &ClientStore{
		slots:   slots,
		key:     key,
		metrics: metrics,
		logger:  logger,
	}
}

// Load reads the snapshot once at start-up. An unreadable or corrupt snapshot
// is not fatal: the store starts empty, keeps a copy of the bad bytes under
// "<key>.corrupt" and exposes a warning through LoadWarning.
func (s *ClientStore) Load(ctx context.Context) error {
	ctx, span := storeTracer.Start(ctx, "ClientStore.Load")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.warning = ""

	data, err := s.slots.Read(ctx, s.key)
	if err != nil {
		perr := &domain.ErrPersistence{Op: "load", Err: err}
		s.metrics.IncrPersistError()
		s.warning = "Não foi possível carregar os clientes guardados; a lista começa vazia."
		s.logger.Warn("client snapshot unreadable, starting empty", zap.String("slot", s.key), zap.Error(perr))
		return perr
	}
	if len(data) == 0 {
		s.metrics.SetClients(0)
		return nil
	}

	var records []domain.ClientRecord
	if err := json.Unmarshal(data, &records); err != nil {
		perr := &domain.ErrPersistence{Op: "decode", Err: err}
		s.metrics.IncrPersistError()
		s.warning = "Os clientes guardados estavam corrompidos; foi feita uma cópia e a lista começa vazia."
		s.logger.Warn("client snapshot corrupt, starting empty", zap.String("slot", s.key), zap.Error(perr))
		if werr := s.slots.Write(ctx, s.key+".corrupt", data); werr != nil {
			s.logger.Error("failed to keep corrupt snapshot", zap.Error(werr))
		}
		return perr
	}

	backfilled := 0
	for i, rec := range records {
		if rec.NeedsVATBackfill() {
			records[i] = rec.WithDerivedVAT()
			backfilled++
		}
	}

	s.records = records
	s.metrics.SetClients(len(records))
	s.logger.Info("client snapshot loaded",
		zap.String("slot", s.key),
		zap.Int("clients", len(records)),
		zap.Int("vat_backfilled", backfilled),
	)
	return nil
}

// LoadWarning returns a user-facing message when Load had to discard data.
func (s *ClientStore) LoadWarning() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warning
}

// List returns a copy of the collection in insertion order.
func (s *ClientStore) List(ctx context.Context) []domain.ClientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ClientRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with the given NIF.
func (s *ClientStore) Get(ctx context.Context, nif string) (domain.ClientRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(nif)
	if i < 0 {
		return domain.ClientRecord{}, notFound(nif)
	}
	return s.records[i], nil
}

// Upsert replaces the record with the same NIF in place, or appends it.
func (s *ClientStore) Upsert(ctx context.Context, rec domain.ClientRecord) (domain.ClientRecord, error) {
	ctx, span := storeTracer.Start(ctx, "ClientStore.Upsert")
	defer span.End()
	span.SetAttributes(attribute.String("client.nif", rec.NIF))

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshot()
	op := "create"
	if i := s.indexOf(rec.NIF); i >= 0 {
		s.records[i] = rec
		op = "update"
	} else {
		s.records = append(s.records, rec)
	}

	if err := s.commit(ctx, prev); err != nil {
		return domain.ClientRecord{}, err
	}
	s.metrics.IncrMutation(op)
	return rec, nil
}

// Replace swaps the record keyed by targetNIF for rec, keeping its position.
// rec may carry a different NIF as long as no other record owns it.
func (s *ClientStore) Replace(ctx context.Context, targetNIF string, rec domain.ClientRecord) (domain.ClientRecord, error) {
	ctx, span := storeTracer.Start(ctx, "ClientStore.Replace")
	defer span.End()
	span.SetAttributes(attribute.String("client.nif", targetNIF))

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(targetNIF)
	if i < 0 {
		return domain.ClientRecord{}, notFound(targetNIF)
	}
	if j := s.indexOf(rec.NIF); j >= 0 && j != i {
		return domain.ClientRecord{}, &domain.ErrDuplicate{Key: rec.NIF}
	}

	prev := s.snapshot()
	s.records[i] = rec
	if err := s.commit(ctx, prev); err != nil {
		return domain.ClientRecord{}, err
	}
	s.metrics.IncrMutation("update")
	return rec, nil
}

// Remove deletes the record with the given NIF.
func (s *ClientStore) Remove(ctx context.Context, nif string) error {
	ctx, span := storeTracer.Start(ctx, "ClientStore.Remove")
	defer span.End()
	span.SetAttributes(attribute.String("client.nif", nif))

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(nif)
	if i < 0 {
		return notFound(nif)
	}

	prev := s.snapshot()
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	if err := s.commit(ctx, prev); err != nil {
		return err
	}
	s.metrics.IncrMutation("delete")
	return nil
}

// SetFlag sets exactly one boolean of the matching record.
func (s *ClientStore) SetFlag(ctx context.Context, nif string, flag domain.Flag, value bool) (domain.ClientRecord, error) {
	return s.mutateFlag(ctx, nif, flag, func(bool) bool { return value })
}

// Toggle flips one boolean of the matching record.
func (s *ClientStore) Toggle(ctx context.Context, nif string, flag domain.Flag) (domain.ClientRecord, error) {
	return s.mutateFlag(ctx, nif, flag, func(v bool) bool { return !v })
}

func (s *ClientStore) mutateFlag(ctx context.Context, nif string, flag domain.Flag, next func(bool) bool) (domain.ClientRecord, error) {
	ctx, span := storeTracer.Start(ctx, "ClientStore.SetFlag")
	defer span.End()
	span.SetAttributes(attribute.String("client.nif", nif), attribute.String("flag", string(flag)))

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(nif)
	if i < 0 {
		return domain.ClientRecord{}, notFound(nif)
	}

	prev := s.snapshot()
	rec := &s.records[i]
	switch flag {
	case domain.FlagTrabalho:
		rec.TrabalhoConcluido = next(rec.TrabalhoConcluido)
	case domain.FlagPagamento:
		rec.PagamentoRealizado = next(rec.PagamentoRealizado)
	default:
		return domain.ClientRecord{}, &domain.ErrValidation{Field: "flag", Message: "flag desconhecida: " + string(flag)}
	}

	if err := s.commit(ctx, prev); err != nil {
		return domain.ClientRecord{}, err
	}
	s.metrics.IncrMutation("toggle")
	return s.records[i], nil
}

// commit writes the whole collection to the slot. On failure the in-memory
// collection is restored to prev. Callers hold s.mu.
func (s *ClientStore) commit(ctx context.Context, prev []domain.ClientRecord) error {
	start := time.Now()
	defer func() { s.metrics.RecordPersist(time.Since(start)) }()

	records := s.records
	if records == nil {
		records = []domain.ClientRecord{}
	}
	data, err := json.Marshal(records)
	if err == nil {
		err = s.slots.Write(ctx, s.key, data)
	}
	if err != nil {
		s.records = prev
		s.metrics.IncrPersistError()
		s.logger.Error("failed to persist clients", zap.String("slot", s.key), zap.Error(err))
		return &domain.ErrPersistence{Op: "save", Err: err}
	}

	s.metrics.SetClients(len(s.records))
	return nil
}

func (s *ClientStore) snapshot() []domain.ClientRecord {
	out := make([]domain.ClientRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *ClientStore) indexOf(nif string) int {
	for i := range s.records {
		if domain.SameNIF(s.records[i].NIF, nif) {
			return i
		}
	}
	return -1
}

func notFound(nif string) error {
	return &domain.ErrNotFound{Resource: "cliente", ID: nif}
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	var nf *domain.ErrNotFound
	return errors.As(err, &nf)
}
