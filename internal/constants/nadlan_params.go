package constants

// Источник живых данных
const (
	NadlanURL = "https://www.nadlan.gov.il/"
	// NadlanLocale - локаль браузерной сессии, сайт отдает интерфейс на иврите.
	NadlanLocale = "he-IL"
)

// Селекторы страницы поиска. Разметка сайта не документирована и может
// поменяться без предупреждения, поэтому при их отсутствии извлечение
// деградирует до пустого результата.
const (
	SelectorSearchInput     = `input#SearchString`
	SelectorSuggestionList  = `ul.react-autosuggest__suggestions-list`
	SelectorFirstSuggestion = `ul.react-autosuggest__suggestions-list li:first-child`
	SelectorSearchButton    = `button#submitSearchBtn`
	SelectorResultsTable    = `table.mainTable`
)

// Метки источника в поле SourcePlatform
const (
	SourceLive      = "nadlan.gov.il"
	SourceSynthetic = "synthetic"
)

// PlaceholderNeighborhoods - районы-заглушки для синтетики, когда запрошены "все районы".
var PlaceholderNeighborhoods = []string{
	"Center",
	"North",
	"South",
	"Old City",
	"New Quarter",
}

// SeedNeighborhoods - встроенный справочник районов. Ключ - город
// (латиница или иврит), значение - известные районы.
var SeedNeighborhoods = map[string][]string{
	"Beer Sheva": {"Ramot", "Neve Zeev", "Old City", "Nahal Ashan", "Neve Noy", "Shchuna Dalet", "Shchuna Hey", "Kalaniyot"},
	"באר שבע":    {"רמות", "נווה זאב", "העיר העתיקה", "נחל עשן", "נווה נוי", "שכונה ד", "שכונה ה", "כלניות"},
	"Tel Aviv":   {"Florentin", "Neve Tzedek", "Ramat Aviv", "Old North", "Yad Eliyahu", "Bavli"},
	"תל אביב":    {"פלורנטין", "נווה צדק", "רמת אביב", "הצפון הישן", "יד אליהו", "בבלי"},
	"Haifa":      {"Carmel Center", "Hadar", "Bat Galim", "Neve Shaanan", "Ramat Hanasi"},
	"Jerusalem":  {"Rehavia", "Talpiot", "Katamon", "Gilo", "Pisgat Zeev", "Ein Kerem"},
}
