package nadlanfetcher

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"nadlan-parser/internal/core/domain"
)

// Позиции колонок таблицы результатов, когда эвристика не сработала.
const (
	colDate = iota
	colAddress
	colAssetType
	colRooms
	colFloor
	colArea
	colPrice

	minRowCells = 7
)

const rowDateLayout = "02/01/2006"

var (
	thousandsSeparator = regexp.MustCompile(`\d,\d{3}`)
	firstNumber        = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)
	nonDigits          = regexp.MustCompile(`[^\d]`)
)

// decodeRow - "лучшая попытка" разобрать строку таблицы. Вторым значением
// возвращается false, если строку нужно пропустить; ошибок нет.
// Город, район и источник заполняет вызывающая сторона.
func decodeRow(raw []string) (domain.RecordParams, bool) {
	if len(raw) < minRowCells {
		return domain.RecordParams{}, false
	}
	cells := make([]string, len(raw))
	for i, c := range raw {
		cells[i] = strings.TrimSpace(c)
	}

	dateIdx := findCell(cells, looksLikeDate, -1)
	if dateIdx < 0 {
		dateIdx = colDate
	}
	// Цена ищется справа: площадь "1,050 מ"ר" тоже похожа на сумму, но стоит левее.
	priceIdx := findLastCell(cells, looksLikePrice, dateIdx, colArea)
	if priceIdx < 0 {
		priceIdx = colPrice
	}

	date, err := time.Parse(rowDateLayout, cells[dateIdx])
	if err != nil {
		return domain.RecordParams{}, false
	}

	return domain.RecordParams{
		Date:           date,
		Neighborhood:   cells[colAddress],
		Rooms:          parseDecimal(cells[colRooms]),
		Floor:          parseInt(cells[colFloor]),
		AreaSqm:        parseArea(cells[colArea]),
		Price:          parseAmount(cells[priceIdx]),
		OwnershipShare: domain.OwnershipFull,
	}, true
}

func findCell(cells []string, match func(string) bool, skip int) int {
	for i, c := range cells {
		if i != skip && match(c) {
			return i
		}
	}
	return -1
}

func findLastCell(cells []string, match func(string) bool, skip ...int) int {
	for i := len(cells) - 1; i >= 0; i-- {
		if !slices.Contains(skip, i) && match(cells[i]) {
			return i
		}
	}
	return -1
}

// looksLikeDate: содержит "/" и ровно 10 символов (DD/MM/YYYY).
func looksLikeDate(s string) bool {
	return strings.Contains(s, "/") && len(s) == 10
}

// looksLikePrice: есть разделитель тысяч и длина больше 6.
func looksLikePrice(s string) bool {
	return len(s) > 6 && thousandsSeparator.MatchString(s)
}

// parseAmount оставляет только цифры; нечисловой текст дает 0.
func parseAmount(s string) int {
	v, err := strconv.Atoi(nonDigits.ReplaceAllString(s, ""))
	if err != nil {
		return 0
	}
	return v
}

// parseInt берет первое целое число со знаком ("-1", "3 מתוך 8"); иначе 0.
func parseInt(s string) int {
	m := firstNumber.FindString(s)
	if m == "" {
		return 0
	}
	if i := strings.IndexAny(m, ".,"); i >= 0 {
		m = m[:i]
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return v
}

// parseArea: запятая перед тремя цифрами - разделитель тысяч ("1,050"),
// иначе десятичная. Округляется до целых метров.
func parseArea(s string) int {
	if thousandsSeparator.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	return int(parseDecimal(s) + 0.5)
}

// parseDecimal берет первое число, запятая считается десятичной ("3,5").
func parseDecimal(s string) float64 {
	m := firstNumber.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0
	}
	return v
}
