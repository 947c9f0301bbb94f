package geo

import (
	"github.com/dkravets/weather-consensus/internal/weather"
)

// cityAliases folds known spellings and transliterations to a canonical
// root before slugification.
var cityAliases = map[string]string{
	"moscow":           "moscow",
	"moskva":           "moscow",
	"москва":           "moscow",
	"saint-petersburg": "saint-petersburg",
	"st-petersburg":    "saint-petersburg",
	"санкт-петербург":  "saint-petersburg",
	"питер":            "saint-petersburg",
	"novosibirsk":      "novosibirsk",
	"новосибирск":      "novosibirsk",
	"kazan":            "kazan",
	"казань":           "kazan",
}

type preset struct {
	displayName string
	lat, lon    float64
	urls        map[weather.SourceKind]string
}

// cityPresets are the known cities with verified landing pages per source.
// Anything else goes through geocoding.
var cityPresets = map[string]preset{
	"moscow": {
		displayName: "Москва, RU",
		lat:         55.7558,
		lon:         37.6176,
		urls: map[weather.SourceKind]string{
			weather.SourceMeteoinfo:  "https://meteoinfo.ru/pogoda/russia/moscow-area/moscow",
			weather.SourceGismeteo:   "https://www.gismeteo.ru/weather-moscow-4368/",
			weather.SourceYandex:     "https://yandex.ru/pogoda/moscow",
			weather.SourceWeatherCom: "https://weather.com/weather/today/l/55.7558,37.6176",
		},
	},
	"saint-petersburg": {
		displayName: "Санкт-Петербург, RU",
		lat:         59.9343,
		lon:         30.3351,
		urls: map[weather.SourceKind]string{
			weather.SourceMeteoinfo:  "https://meteoinfo.ru/pogoda/russia/leningrad-area/st-petersburg",
			weather.SourceGismeteo:   "https://www.gismeteo.ru/weather-sankt-peterburg-4079/",
			weather.SourceYandex:     "https://yandex.ru/pogoda/saint-petersburg",
			weather.SourceWeatherCom: "https://weather.com/weather/today/l/59.9343,30.3351",
		},
	},
	"novosibirsk": {
		displayName: "Новосибирск, RU",
		lat:         55.0084,
		lon:         82.9357,
		urls: map[weather.SourceKind]string{
			weather.SourceMeteoinfo:  "https://meteoinfo.ru/pogoda/russia/novosibirsk-area/novosibirsk",
			weather.SourceGismeteo:   "https://www.gismeteo.ru/weather-novosibirsk-4690/",
			weather.SourceYandex:     "https://yandex.ru/pogoda/novosibirsk",
			weather.SourceWeatherCom: "https://weather.com/weather/today/l/55.0084,82.9357",
		},
	},
	"kazan": {
		displayName: "Казань, RU",
		lat:         55.7961,
		lon:         49.1064,
		urls: map[weather.SourceKind]string{
			weather.SourceMeteoinfo:  "https://meteoinfo.ru/pogoda/russia/tatarstan/kazan",
			weather.SourceGismeteo:   "https://www.gismeteo.ru/weather-kazan-4364/",
			weather.SourceYandex:     "https://yandex.ru/pogoda/kazan",
			weather.SourceWeatherCom: "https://weather.com/weather/today/l/55.7961,49.1064",
		},
	},
}

// translitMap is the fixed Cyrillic to Latin character map used for slug
// derivation. Not a general transliteration scheme, just the contract for
// stable cache keys.
var translitMap = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "sch", 'ъ': "", 'ы': "y", 'ь': "",
	'э': "e", 'ю': "yu", 'я': "ya",
}
