package domain

import (
	"fmt"
	"math"
	"time"
)

// AssetTypeApartment - единственный тип объекта, с которым работает парсер.
const AssetTypeApartment = "apartment"

// OwnershipShare - доля собственности, переданная в сделке (в процентах).
type OwnershipShare int

const (
	OwnershipFull    OwnershipShare = 100
	OwnershipHalf    OwnershipShare = 50
	OwnershipThird   OwnershipShare = 33
	OwnershipQuarter OwnershipShare = 25
	OwnershipTenth   OwnershipShare = 10
)

// PartialOwnershipShares - все доли, кроме полной.
var PartialOwnershipShares = []OwnershipShare{OwnershipHalf, OwnershipThird, OwnershipQuarter, OwnershipTenth}

// Valid сообщает, входит ли доля в допустимый набор.
func (s OwnershipShare) Valid() bool {
	switch s {
	case OwnershipFull, OwnershipHalf, OwnershipThird, OwnershipQuarter, OwnershipTenth:
		return true
	}
	return false
}

// Fraction возвращает долю как множитель (0.5 для 50%).
func (s OwnershipShare) Fraction() float64 {
	return float64(s) / 100
}

func (s OwnershipShare) String() string {
	return fmt.Sprintf("%d%%", int(s))
}

// TransactionRecord - каноническая строка сделки, общая для всех источников.
// После создания через NewTransactionRecord не изменяется.
type TransactionRecord struct {
	Date           time.Time      `json:"date"`
	City           string         `json:"city"`
	Neighborhood   string         `json:"neighborhood"`
	AssetType      string         `json:"asset_type"`
	Rooms          float64        `json:"rooms"`
	Floor          int            `json:"floor"`
	AreaSqm        int            `json:"area_sqm"`
	Price          int            `json:"price"`
	PricePerSqm    int            `json:"price_per_sqm"`
	OwnershipShare OwnershipShare `json:"ownership_share"`
	SourcePlatform string         `json:"source_platform"`
}

// RecordParams - сырые значения, из которых собирается TransactionRecord.
// PricePerSqm здесь намеренно отсутствует: он всегда вычисляется.
type RecordParams struct {
	Date           time.Time
	City           string
	Neighborhood   string
	Rooms          float64
	Floor          int
	AreaSqm        int
	Price          int
	OwnershipShare OwnershipShare
	SourcePlatform string
}

// NewTransactionRecord проверяет параметры и собирает запись.
func NewTransactionRecord(p RecordParams) (TransactionRecord, error) {
	if p.Date.IsZero() {
		return TransactionRecord{}, fmt.Errorf("%w: date is required", ErrInvalidRecord)
	}
	if p.AreaSqm <= 0 {
		return TransactionRecord{}, fmt.Errorf("%w: area must be positive, got %d", ErrInvalidRecord, p.AreaSqm)
	}
	if p.Price <= 0 {
		return TransactionRecord{}, fmt.Errorf("%w: price must be positive, got %d", ErrInvalidRecord, p.Price)
	}
	if p.Rooms <= 0 || math.IsNaN(p.Rooms) {
		return TransactionRecord{}, fmt.Errorf("%w: rooms must be positive, got %v", ErrInvalidRecord, p.Rooms)
	}
	share := p.OwnershipShare
	if share == 0 {
		share = OwnershipFull
	}
	if !share.Valid() {
		return TransactionRecord{}, fmt.Errorf("%w: unsupported ownership share %d", ErrInvalidRecord, int(share))
	}

	return TransactionRecord{
		Date:           DateOf(p.Date),
		City:           p.City,
		Neighborhood:   p.Neighborhood,
		AssetType:      AssetTypeApartment,
		Rooms:          RoundRooms(p.Rooms),
		Floor:          p.Floor,
		AreaSqm:        p.AreaSqm,
		Price:          p.Price,
		PricePerSqm:    PricePerSqm(p.Price, p.AreaSqm),
		OwnershipShare: share,
		SourcePlatform: p.SourcePlatform,
	}, nil
}

// PricePerSqm = round(price / area); 0 для неположительной площади.
func PricePerSqm(price, areaSqm int) int {
	if areaSqm <= 0 {
		return 0
	}
	return int(math.Round(float64(price) / float64(areaSqm)))
}

// RoundRooms приводит количество комнат к шагу 0.5.
func RoundRooms(rooms float64) float64 {
	return math.Round(rooms*2) / 2
}

// DateOf отбрасывает время суток, оставляя календарную дату в UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
