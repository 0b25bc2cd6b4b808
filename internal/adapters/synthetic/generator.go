// Package synthetic генерирует правдоподобные сделки, когда живое
// извлечение недоступно.
package synthetic

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"nadlan-parser/internal/constants"
	"nadlan-parser/internal/core/domain"

	"github.com/rs/zerolog"
)

// Config задает объем генерации.
type Config struct {
	MinRecords int
	MaxRecords int
	// Seed != 0 делает генерацию воспроизводимой (каждый вызов начинает
	// одну и ту же последовательность).
	Seed uint64
}

// DefaultConfig - демонстрационный объем.
func DefaultConfig() Config {
	return Config{MinRecords: 50, MaxRecords: 200}
}

// HighVolumeConfig - объем для нагрузочных прогонов.
func HighVolumeConfig() Config {
	return Config{MinRecords: 20_000, MaxRecords: 30_000}
}

// Параметры модели цены и площади.
const (
	minFloor = -1
	maxFloor = 25

	areaBase       = 25.0
	areaPerRoom    = 22.0
	areaNoise      = 10.0
	priceBase      = 300_000.0
	pricePerRoom   = 420_000.0
	priceNoise     = 150_000.0
	fullShareProb  = 0.95
	shockProb      = 0.01
	ctxCheckPeriod = 1024
)

type weightedRooms struct {
	rooms  float64
	weight float64
}

// roomsTable: 3-4.5 - часто, 5-6 - средне, 2-2.5 - редко,
// крайние значения суммарно 10%.
var roomsTable = []weightedRooms{
	{1, 10.0 / 6}, {1.5, 10.0 / 6},
	{2, 5}, {2.5, 5},
	{3, 15}, {3.5, 15}, {4, 15}, {4.5, 15},
	{5, 10}, {6, 10},
	{7, 10.0 / 6}, {8, 10.0 / 6}, {9, 10.0 / 6}, {10, 10.0 / 6},
}

// Generator реализует CandidateSourcePort без внешних зависимостей.
type Generator struct {
	cfg         Config
	log         zerolog.Logger
	totalWeight float64
}

// NewGenerator создает генератор.
func NewGenerator(cfg Config, log zerolog.Logger) (*Generator, error) {
	if cfg.MinRecords < 0 || cfg.MaxRecords < cfg.MinRecords {
		return nil, fmt.Errorf("synthetic generator: invalid record count range [%d, %d]", cfg.MinRecords, cfg.MaxRecords)
	}
	total := 0.0
	for _, w := range roomsTable {
		total += w.weight
	}
	return &Generator{
		cfg:         cfg,
		log:         log.With().Str("component", "synthetic_generator").Logger(),
		totalWeight: total,
	}, nil
}

func (g *Generator) newRand() *rand.Rand {
	seed := g.cfg.Seed
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// ProduceCandidates генерирует выборку, сразу отбрасывая кандидатов вне
// запрошенных диапазонов. Отбраковка выбросов остается конвейеру.
func (g *Generator) ProduceCandidates(ctx context.Context, criteria domain.SearchCriteria) (domain.Candidates, error) {
	r := g.newRand()

	target := g.cfg.MinRecords
	if span := g.cfg.MaxRecords - g.cfg.MinRecords; span > 0 {
		target += r.IntN(span + 1)
	}

	start := domain.DateOf(criteria.Start)
	days := int(domain.DateOf(criteria.End).Sub(start).Hours() / 24)
	if days < 0 {
		return domain.Candidates{}, fmt.Errorf("synthetic generator: %w: empty date range", domain.ErrInvalidCriteria)
	}

	records := make([]domain.TransactionRecord, 0, target)
	rejected := 0
	for i := 0; i < target; i++ {
		if i%ctxCheckPeriod == 0 {
			if err := ctx.Err(); err != nil {
				return domain.Candidates{}, fmt.Errorf("synthetic generator: %w", err)
			}
		}

		params := g.candidate(r, start, days)
		if !acceptable(params, criteria) {
			rejected++
			continue
		}

		params.City = criteria.City
		params.Neighborhood = criteria.Neighborhood
		if criteria.AllNeighborhoodsRequested() {
			params.Neighborhood = constants.PlaceholderNeighborhoods[r.IntN(len(constants.PlaceholderNeighborhoods))]
		}
		params.SourcePlatform = constants.SourceSynthetic

		rec, err := domain.NewTransactionRecord(params)
		if err != nil {
			rejected++
			continue
		}
		records = append(records, rec)
	}

	g.log.Debug().
		Str("city", criteria.City).
		Int("target", target).
		Int("accepted", len(records)).
		Int("rejected", rejected).
		Msg("Synthetic batch generated")

	return domain.Candidates{Records: records}, nil
}

func (g *Generator) candidate(r *rand.Rand, start time.Time, days int) domain.RecordParams {
	rooms := g.sampleRooms(r)

	share := domain.OwnershipFull
	if r.Float64() >= fullShareProb {
		share = domain.PartialOwnershipShares[r.IntN(len(domain.PartialOwnershipShares))]
	}

	area := areaBase + areaPerRoom*rooms + uniform(r, -areaNoise, areaNoise)
	price := (priceBase + pricePerRoom*rooms + uniform(r, -priceNoise, priceNoise)) * share.Fraction()
	if r.Float64() < shockProb {
		if r.IntN(2) == 0 {
			price *= 0.5
		} else {
			price *= 2
		}
	}

	return domain.RecordParams{
		Date:           start.AddDate(0, 0, r.IntN(days+1)),
		Rooms:          rooms,
		Floor:          minFloor + r.IntN(maxFloor-minFloor+1),
		AreaSqm:        int(math.Round(area)),
		Price:          int(math.Round(price)),
		OwnershipShare: share,
	}
}

func (g *Generator) sampleRooms(r *rand.Rand) float64 {
	x := r.Float64() * g.totalWeight
	for _, w := range roomsTable {
		if x < w.weight {
			return w.rooms
		}
		x -= w.weight
	}
	return roomsTable[len(roomsTable)-1].rooms
}

// acceptable - шаг отбраковки без повторной попытки.
func acceptable(p domain.RecordParams, c domain.SearchCriteria) bool {
	if !c.RoomsRange.Contains(p.Rooms) || !c.FloorRange.Contains(float64(p.Floor)) || !c.AreaRange.Contains(float64(p.AreaSqm)) {
		return false
	}
	if c.ExcludeAbnormal && p.OwnershipShare != domain.OwnershipFull {
		return false
	}
	return true
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
