package service

import (
	"context"
	"sort"
	"strings"

	"github.com/boddenberg/go-entulho/internal/domain"
	"github.com/boddenberg/go-entulho/internal/infra/observability"
	"github.com/boddenberg/go-entulho/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var queryTracer = otel.Tracer("service/query")

// SortKey selects the list ordering.
type SortKey string

const (
	SortNone  SortKey = ""
	SortName  SortKey = "name"
	SortDate  SortKey = "date"
	SortTotal SortKey = "total"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseSortKey accepts "", name, date and total.
func ParseSortKey(raw string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(raw))); k {
	case SortNone, SortName, SortDate, SortTotal:
		return k, nil
	default:
		return SortNone, &domain.ErrValidation{Field: "sort", Message: "use name, date ou total"}
	}
}

// ParseSortOrder accepts asc and desc; empty means asc.
func ParseSortOrder(raw string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(raw))); o {
	case "", OrderAsc:
		return OrderAsc, nil
	case OrderDesc:
		return OrderDesc, nil
	default:
		return OrderAsc, &domain.ErrValidation{Field: "order", Message: "use asc ou desc"}
	}
}

// FindByPhoneFragment returns the first record, in collection order, whose
// phone digits contain the fragment's digits. Several records may match;
// only the first is returned.
func FindByPhoneFragment(records []domain.ClientRecord, fragment string) (domain.ClientRecord, error) {
	needle := domain.DigitsOnly(fragment)
	if needle == "" {
		return domain.ClientRecord{}, &domain.ErrMissingField{Field: string(domain.FieldNumero)}
	}
	for _, rec := range records {
		if strings.Contains(domain.DigitsOnly(rec.Numero), needle) {
			return rec, nil
		}
	}
	return domain.ClientRecord{}, &domain.ErrNotFound{Resource: "cliente com número", ID: fragment}
}

// FindAllByPhoneFragment returns every matching record in collection order.
func FindAllByPhoneFragment(records []domain.ClientRecord, fragment string) []domain.ClientRecord {
	needle := domain.DigitsOnly(fragment)
	if needle == "" {
		return nil
	}
	var out []domain.ClientRecord
	for _, rec := range records {
		if strings.Contains(domain.DigitsOnly(rec.Numero), needle) {
			out = append(out, rec)
		}
	}
	return out
}

// SortBy returns a sorted copy of records; the input is left untouched.
// Equal keys keep their collection order.
func SortBy(records []domain.ClientRecord, key SortKey, order SortOrder) []domain.ClientRecord {
	out := make([]domain.ClientRecord, len(records))
	copy(out, records)
	if key == SortNone {
		return out
	}

	cmp := compareBy(key)
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if order == OrderDesc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compareBy(key SortKey) func(a, b domain.ClientRecord) int {
	switch key {
	case SortName:
		return func(a, b domain.ClientRecord) int { return strings.Compare(a.Nome, b.Nome) }
	case SortDate:
		return func(a, b domain.ClientRecord) int {
			if c := strings.Compare(a.Data, b.Data); c != 0 {
				return c
			}
			return strings.Compare(a.Hora, b.Hora)
		}
	case SortTotal:
		return func(a, b domain.ClientRecord) int {
			return domain.ParseLooseAmount(a.ValorTotal).Cmp(domain.ParseLooseAmount(b.ValorTotal))
		}
	}
	return func(domain.ClientRecord, domain.ClientRecord) int { return 0 }
}

const highlightKey = "highlight"

// QueryService serves the list view and the phone search over the store.
type QueryService struct {
	repo       port.ClientRepository
	highlights port.Cache[string]
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewQueryService creates a QueryService. highlights should expire entries
// after the highlight window (3s in the list view).
func NewQueryService(repo port.ClientRepository, highlights port.Cache[string], metrics *observability.Metrics, logger *zap.Logger) *QueryService {
	return &QueryService{repo: repo, highlights: highlights, metrics: metrics, logger: logger}
}

// List returns the collection in the requested order.
func (q *QueryService) List(ctx context.Context, key SortKey, order SortOrder) []domain.ClientRecord {
	ctx, span := queryTracer.Start(ctx, "QueryService.List")
	defer span.End()

	return SortBy(q.repo.List(ctx), key, order)
}

// Search finds the first client whose phone contains fragment, marks it as
// highlighted and reports how many clients matched in total.
func (q *QueryService) Search(ctx context.Context, fragment string) (*domain.SearchResult, error) {
	ctx, span := queryTracer.Start(ctx, "QueryService.Search")
	defer span.End()

	records := q.repo.List(ctx)
	found, err := FindByPhoneFragment(records, fragment)
	if err != nil {
		q.highlights.Delete(highlightKey)
		if IsNotFound(err) {
			q.metrics.IncrSearch("not_found")
		}
		return nil, err
	}

	matches := len(FindAllByPhoneFragment(records, fragment))
	q.highlights.Set(highlightKey, found.NIF)
	q.metrics.IncrSearch("found")
	if matches > 1 {
		q.logger.Debug("phone search matched several clients",
			zap.String("fragment", fragment),
			zap.Int("matches", matches),
		)
	}
	return &domain.SearchResult{Client: found, Matches: matches}, nil
}

// Highlighted returns the NIF found by the last search while it is still
// inside the highlight window.
func (q *QueryService) Highlighted() string {
	nif, _ := q.highlights.Get(highlightKey)
	return nif
}

// Stats summarises the collection for the dashboard header: how many jobs
// are done and paid, how much was received and how much is still owed.
func (q *QueryService) Stats(ctx context.Context) domain.ClientStats {
	ctx, span := queryTracer.Start(ctx, "QueryService.Stats")
	defer span.End()

	records := q.repo.List(ctx)
	stats := domain.ClientStats{Clients: len(records)}
	paid, pending := decimal.Zero, decimal.Zero
	for _, rec := range records {
		total := domain.ParseLooseAmount(rec.ValorTotal)
		if rec.TrabalhoConcluido {
			stats.WorkDone++
		}
		if rec.PagamentoRealizado {
			stats.Paid++
			paid = paid.Add(total)
		} else {
			pending = pending.Add(total)
		}
	}
	stats.PaidTotal = displayDecimal(paid)
	stats.PendingTotal = displayDecimal(pending)
	stats.NotifierDelivered = q.metrics.NotifierCount("delivered")
	stats.NotifierFailed = q.metrics.NotifierCount("failed")
	stats.PersistenceFailure = q.metrics.PersistErrorCount()
	return stats
}

func displayDecimal(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
