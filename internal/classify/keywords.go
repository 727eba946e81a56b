package classify

import (
	"regexp"
	"strings"
)

// PredefinedCategories are the mandatory top-level categories. They
// always exist conceptually even when absent from the tree, and the
// keyword override below forces matching notes into them.
var PredefinedCategories = []string{
	"rutina diaria", "compras", "trabajo/clase", "finanzas",
	"viajes", "vida social", "citas",
}

// categoryKeywords maps each predefined category to note substrings
// that almost always indicate it. First category with a hit wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"rutina diaria", []string{
		"dormir", "despertar", "levantarme", "levantarse", "acostarme",
		"acostarse", "desayunar", "desayuno", "almorzar", "almuerzo",
		"comer a las", "merendar", "merienda", "cenar", "cena",
		"ducharme", "ducharse", "meditar", "rutina", "hábito", "horario de",
		"hacer deporte", "deporte", "nadar", "natación", "natacion",
		"correr", "running", "yoga", "ciclismo", "bici ", "bicicleta",
		"entrenar", "entrenamiento", "pilates", "boxeo", "gimnasio", "gym",
	}},
	{"compras", []string{"comprar ", "necesito comprar", "tengo que comprar"}},
	{"trabajo/clase", []string{
		"examen", "entrega", "trabajo de clase", "reunión de trabajo",
		"presentación del trabajo",
	}},
	{"finanzas", []string{
		"pagar el recibo", "pagar la factura", "pagar impuesto",
		"recibo de", "factura de", "mi sueldo", "mis ahorros",
	}},
	{"viajes", []string{
		"viaje a ", "viajar a ", "vuelo a ", "reservar hotel",
		"billete de avión", "de vacaciones",
	}},
	{"vida social", []string{
		"quedar con ", "quedada con ", "cena con ", "comida con ",
		"fiesta de ", "cumpleaños de ",
	}},
	{"citas", []string{
		"cita con el ", "cita médica", "cita con mi ", "ir al dentista",
		"ir al médico", "cita con el dentista", "cita con el médico",
	}},
}

// routineActivityMap normalizes a routine activity mentioned in the
// note into its subgroup name. Every physical activity maps to the
// shared "deporte" subgroup.
var routineActivityMap = []struct {
	keyword  string
	subgroup string
}{
	{"dormir", "dormir"},
	{"acostarme", "dormir"},
	{"acostarse", "dormir"},
	{"levantarme", "levantarse"},
	{"levantarse", "levantarse"},
	{"despertarme", "levantarse"},
	{"despertar", "levantarse"},
	{"desayunar", "desayuno"},
	{"desayuno", "desayuno"},
	{"almorzar", "almuerzo"},
	{"almuerzo", "almuerzo"},
	{"merendar", "merienda"},
	{"merienda", "merienda"},
	{"cenar", "cena"},
	{"cena", "cena"},
	{"comer", "comer"},
	{"ducharme", "ducha"},
	{"ducharse", "ducha"},
	{"ducha", "ducha"},
	{"meditar", "meditación"},
	{"meditación", "meditación"},
	{"hacer deporte", "deporte"},
	{"deporte", "deporte"},
	{"nadar", "deporte"},
	{"natación", "deporte"},
	{"natacion", "deporte"},
	{"correr", "deporte"},
	{"running", "deporte"},
	{"yoga", "deporte"},
	{"ciclismo", "deporte"},
	{"bicicleta", "deporte"},
	{"pilates", "deporte"},
	{"boxeo", "deporte"},
	{"ejercicio", "deporte"},
	{"entrenar", "deporte"},
	{"entrenamiento", "deporte"},
	{"gimnasio", "deporte"},
	{"gym", "deporte"},
	{"estudiar", "estudio"},
}

// deleteKeywords mark notes whose real intent is removal even when the
// oracle proposed an add.
var deleteKeywords = []string{
	"elimina ", "eliminar ", "elimina la", "eliminar la",
	"borra ", "borrar ", "borra la", "borrar la",
	"quita ", "quitar ", "quita la", "quitar la",
	"ya no quiero", "descarta ", "descartar ",
	"bórralo", "bórrala", "elimínalo", "elimínala",
	"ya no necesito", "tacha ", "tachar ",
}

// creationKeywords inside a distilled idea mean the idea is really a
// group/subgroup management command and carries no content of its own.
var creationKeywords = []string{
	"añade", "añadir", "agrega", "agregar", "crea", "crear",
	"abre", "abrir", "nuevo grupo", "nueva categoria",
	"nueva categoría", "el grupo", "un grupo",
	"el subgrupo", "un subgrupo", "nuevo subgrupo", "nueva sección",
	"nueva seccion", "subgrupo de",
}

// structureWords in an idea's leading tokens flag a leaked command.
var structureWords = map[string]bool{
	"subgrupo": true, "grupo": true, "categoría": true,
	"categoria": true, "seccion": true, "sección": true,
}

// fillerRe strips the intent phrase a user puts before the actual idea
// ("me gustaría ...", "tengo que ...").
var fillerRe = regexp.MustCompile(`(?i)^(me gustar[ií]a\s+(que\s+)?|quisiera\s+|quiero\s+que\s+|quiero\s+|tengo\s+que\s+|` +
	`tengo\s+ganas\s+de\s+|voy\s+a\s+|me\s+apetece\s+|` +
	`tendr[ií]a\s+que\s+|deber[ií]a\s+|me\s+conviene\s+|necesito\s+|necesitar[ií]a\s+|` +
	`pienso\s+en\s+|estoy\s+pensando\s+en\s+|pienso\s+|me\s+interesar[ií]a\s+|` +
	`me\s+mola\s+|me\s+apetecer[ií]a\s+|planifico\s+|planeo\s+|plan\s+de\s+)`)

// commandVerbRe matches an idea that starts with a management verb.
var commandVerbRe = regexp.MustCompile(`(?i)^(a[ñn]ade|agrega|crea|abre|a[ñn]adir|agregar|crear|abrir|pon|poner|mete|meter)\b`)

// wordRe tokenizes on unicode letters and digits.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// stopwordsES are ignored when measuring token overlap between an idea
// and the note that produced it.
var stopwordsES = map[string]bool{
	"el": true, "la": true, "los": true, "las": true, "un": true, "una": true,
	"unos": true, "unas": true, "de": true, "del": true, "al": true, "que": true,
	"en": true, "y": true, "a": true, "o": true, "con": true, "por": true,
	"para": true, "me": true, "te": true, "se": true, "le": true, "lo": true,
	"su": true, "si": true, "ya": true, "no": true, "como": true, "pero": true,
	"este": true, "esta": true, "ese": true, "esa": true, "aquel": true,
	"mi": true, "tu": true, "nos": true, "les": true,
}

// IsDeleteIntent reports whether the note text expresses removal.
func IsDeleteIntent(note string) bool {
	lower := strings.ToLower(note)
	for _, kw := range deleteKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isPredefinedCategory reports whether name is one of the mandatory
// categories.
func isPredefinedCategory(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, c := range PredefinedCategories {
		if lower == c {
			return true
		}
	}
	return false
}

// guessPredefinedCategory scans the note for category keywords and
// returns the matching category, or "".
func guessPredefinedCategory(note string) string {
	lower := strings.ToLower(note)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return ""
}

// extractRoutineSubgroup returns the normalized routine subgroup for
// the activity the note mentions, or "".
func extractRoutineSubgroup(note string) string {
	lower := strings.ToLower(note)
	for _, entry := range routineActivityMap {
		if strings.Contains(lower, entry.keyword) {
			return entry.subgroup
		}
	}
	return ""
}
