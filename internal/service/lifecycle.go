package service

import (
	"context"
	"sync"

	"github.com/boddenberg/go-entulho/internal/domain"
	"github.com/boddenberg/go-entulho/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var lifecycleTracer = otel.Tracer("service/lifecycle")

// Lifecycle turns form submissions into creates or updates, owns the single
// edit-target slot and drives the two status toggles.
//
// States: Idle (no target) and Editing(target). BeginEdit enters Editing,
// Submit and CancelEdit return to Idle. Toggles and deletes work in either state.
type Lifecycle struct {
	mu     sync.Mutex
	target string

	repo     port.ClientRepository
	notifier port.Dispatcher
	logger   *zap.Logger
}

// NewLifecycle creates a Lifecycle in the Idle state. notifier may be nil
// when no webhook is configured.
func NewLifecycle(repo port.ClientRepository, notifier port.Dispatcher, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{repo: repo, notifier: notifier, logger: logger}
}

// EditTarget returns the NIF being edited, or "" when Idle.
func (l *Lifecycle) EditTarget() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target
}

// BeginEdit enters Editing for nif and returns the record to pre-fill the form.
func (l *Lifecycle) BeginEdit(ctx context.Context, nif string) (domain.ClientRecord, error) {
	ctx, span := lifecycleTracer.Start(ctx, "Lifecycle.BeginEdit")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.repo.Get(ctx, nif)
	if err != nil {
		return domain.ClientRecord{}, err
	}
	l.target = rec.NIF
	return rec, nil
}

// CancelEdit discards the edit target without touching the store.
func (l *Lifecycle) CancelEdit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.target = ""
}

// Submit validates a filled-in form and stores it. While Idle it creates a
// new record and refuses a NIF that already exists; while Editing it replaces
// the edit target and returns to Idle. The status flags are never taken from
// the form: new records start with both false, edited records keep theirs.
func (l *Lifecycle) Submit(ctx context.Context, form domain.ClientRecord) (*domain.SubmitResult, error) {
	ctx, span := lifecycleTracer.Start(ctx, "Lifecycle.Submit")
	defer span.End()

	if err := form.Validate(); err != nil {
		return nil, err
	}
	rec := form.Normalized()
	span.SetAttributes(attribute.String("client.nif", rec.NIF))

	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		stored  domain.ClientRecord
		created bool
		err     error
	)
	if l.target == "" {
		stored, err = l.create(ctx, rec)
		created = true
	} else {
		stored, err = l.update(ctx, l.target, rec)
	}
	if err != nil {
		return nil, err
	}

	if !created {
		l.target = ""
	}
	l.logger.Info("client saved",
		zap.String("nif", stored.NIF),
		zap.Bool("created", created),
	)

	if l.notifier != nil {
		l.notifier.Dispatch(stored)
	}
	return &domain.SubmitResult{Client: stored, Created: created}, nil
}

func (l *Lifecycle) create(ctx context.Context, rec domain.ClientRecord) (domain.ClientRecord, error) {
	if _, err := l.repo.Get(ctx, rec.NIF); err == nil {
		return domain.ClientRecord{}, &domain.ErrDuplicate{Key: rec.NIF}
	} else if !IsNotFound(err) {
		return domain.ClientRecord{}, err
	}

	rec.TrabalhoConcluido = false
	rec.PagamentoRealizado = false
	return l.repo.Upsert(ctx, rec)
}

func (l *Lifecycle) update(ctx context.Context, target string, rec domain.ClientRecord) (domain.ClientRecord, error) {
	current, err := l.repo.Get(ctx, target)
	if err != nil {
		return domain.ClientRecord{}, err
	}

	rec.TrabalhoConcluido = current.TrabalhoConcluido
	rec.PagamentoRealizado = current.PagamentoRealizado
	return l.repo.Replace(ctx, target, rec)
}

// ToggleTrabalho flips the work-completed flag.
func (l *Lifecycle) ToggleTrabalho(ctx context.Context, nif string) (domain.ClientRecord, error) {
	return l.toggle(ctx, nif, domain.FlagTrabalho)
}

// TogglePagamento flips the payment-received flag.
func (l *Lifecycle) TogglePagamento(ctx context.Context, nif string) (domain.ClientRecord, error) {
	return l.toggle(ctx, nif, domain.FlagPagamento)
}

func (l *Lifecycle) toggle(ctx context.Context, nif string, flag domain.Flag) (domain.ClientRecord, error) {
	ctx, span := lifecycleTracer.Start(ctx, "Lifecycle.Toggle")
	defer span.End()
	span.SetAttributes(attribute.String("client.nif", nif), attribute.String("flag", string(flag)))

	rec, err := l.repo.Toggle(ctx, nif, flag)
	if err != nil {
		return domain.ClientRecord{}, err
	}
	l.logger.Info("client status toggled",
		zap.String("nif", rec.NIF),
		zap.String("flag", string(flag)),
		zap.Bool("trabalho_concluido", rec.TrabalhoConcluido),
		zap.Bool("pagamento_realizado", rec.PagamentoRealizado),
	)
	return rec, nil
}

// SetFlag sets one status flag to an explicit value.
func (l *Lifecycle) SetFlag(ctx context.Context, nif string, flag domain.Flag, value bool) (domain.ClientRecord, error) {
	ctx, span := lifecycleTracer.Start(ctx, "Lifecycle.SetFlag")
	defer span.End()
	span.SetAttributes(attribute.String("client.nif", nif), attribute.String("flag", string(flag)))

	rec, err := l.repo.SetFlag(ctx, nif, flag, value)
	if err != nil {
		return domain.ClientRecord{}, err
	}
	l.logger.Info("client status set",
		zap.String("nif", rec.NIF),
		zap.String("flag", string(flag)),
		zap.Bool("value", value),
	)
	return rec, nil
}

// Delete removes a client once the user has confirmed. Deleting the record
// being edited also cancels the edit.
func (l *Lifecycle) Delete(ctx context.Context, nif string, confirmed bool) error {
	ctx, span := lifecycleTracer.Start(ctx, "Lifecycle.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("client.nif", nif))

	if !confirmed {
		return &domain.ErrConfirmationRequired{Action: "excluir cliente " + nif}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.repo.Remove(ctx, nif); err != nil {
		return err
	}
	if l.target != "" && domain.SameNIF(l.target, nif) {
		l.target = ""
	}
	l.logger.Info("client deleted", zap.String("nif", nif))
	return nil
}
