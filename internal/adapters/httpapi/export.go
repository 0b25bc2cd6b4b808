package httpapi

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"nadlan-parser/internal/core/domain"
)

// CSVHeader - колонки выгрузки в порядке полей TransactionRecord.
var CSVHeader = []string{
	"date", "city", "neighborhood", "asset_type", "rooms", "floor",
	"area_sqm", "price", "price_per_sqm", "ownership_share", "source_platform",
}

// WriteCSV пишет выборку с заголовком. Пустая выборка дает только заголовок.
func WriteCSV(w io.Writer, records []domain.TransactionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.Date.Format(time.DateOnly),
			rec.City,
			rec.Neighborhood,
			rec.AssetType,
			strconv.FormatFloat(rec.Rooms, 'f', -1, 64),
			strconv.Itoa(rec.Floor),
			strconv.Itoa(rec.AreaSqm),
			strconv.Itoa(rec.Price),
			strconv.Itoa(rec.PricePerSqm),
			strconv.Itoa(int(rec.OwnershipShare)),
			rec.SourcePlatform,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
