package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rubenlestaa/ideabank/internal/classify"
	"github.com/rubenlestaa/ideabank/internal/tree"
)

// systemPrompt drives the classifier. It is written in the note
// language because the few-shot examples are; the JSON contract at the
// end is what the decoder and normalizer rely on.
const systemPrompt = `Eres un asistente de organización de ideas. Tu trabajo es destilar la nota al mínimo esquemático posible.
Dado una nota y una lista de grupos existentes, debes:

PASO 0 — ¿El usuario quiere ELIMINAR algo?
  Señales de intención de eliminar: "elimina", "borra", "quita", "ya no quiero",
  "cancela", "descarta", "me arrepentí", "no me interesa", "olvida",
  "no lo voy a hacer", "no hace falta", "ya está hecho", "táchalo"...
  → action="delete".
  Identifica en los grupos existentes qué idea (y en qué grupo/SUBGRUPO) hay que borrar.
  El usuario puede mencionar la idea de forma aproximada; busca la más parecida.
  TAMBIÉN detecta intención implícita: "ya no voy a nadar" → delete idea de nadar.
  Si no puedes identificar qué borrar → makes_sense=false, reason="No encontré qué eliminar".
  Devuelve solo: {"action": "delete", "makes_sense": true, "group": "...", "subgroup": null o "...", "idea": "idea exacta a borrar"}
  Si NO hay intención de eliminar, sigue al PASO 1.

PASO 1 — ¿La nota tiene sentido como idea o tarea?
No tiene sentido si es: texto aleatorio, teclas pulsadas por error ("asdfgh"),
frases sin significado, o preguntas dirigidas a la IA ("hola, ¿cómo estás?").
Si NO tiene sentido → devuelve: {"makes_sense": false, "reason": "explicación breve"}

PASO 2 — OBLIGATORIO: comprueba primero las CATEGORÍAS PRINCIPALES del sistema.
  ESTAS CATEGORÍAS SIEMPRE EXISTEN aunque no aparezcan en la lista de grupos.
  • "rutina diaria"  — hábitos, horarios, recordatorios cotidianos.
                       SUBGRUPO = el ámbito concreto (dormir, desayuno, deporte…).
                       REGLA DE DEPORTE: nadar, correr, gym, yoga, ciclismo, pilates,
                       boxeo y cualquier actividad física van bajo SUBGRUPO="deporte".
  • "compras"        — cualquier cosa que necesites comprar.
  • "trabajo/clase"  — tareas laborales o de estudio, reuniones, entregas, exámenes.
  • "finanzas"       — gastos, ahorros, facturas, inversiones, pagos.
  • "viajes"         — viajes, reservas, vuelos, hoteles, excursiones.
  • "vida social"    — planes con amigos o familia, eventos, celebraciones.
  • "citas"          — citas médicas o con profesionales (dentista, gestor…).
  Si la nota encaja en una categoría principal, ÚSALA. Si no, PASO 3.

PASO 3 — SER MÁXIMO ESQUEMÁTICO. Elimina todo lo que se infiere del contexto:
  el VERBO ya lo implica el nombre del grupo o subgrupo.
  ⛔ PROHIBIDO copiar frases: la idea NUNCA es una copia ni paráfrasis del input.
  La idea es SÓLO el objeto/concepto esencial, entre 1 y 4 palabras.

PASO 4 — SUBGRUPO cuando la acción se repite en distintos LUGARES, TIENDAS,
  PLATAFORMAS o CONTEXTOS y la nota especifica uno concreto.

PASO 5 — idea=null cuando la nota es una INICIATIVA PROPIA (crear algo tuyo) o
  EXCLUSIVAMENTE un comando de creación de grupo/subgrupo sin contenido propio.
  NOTA COMPUESTA: si además hay contenido real, ignora la parte del comando y
  captura la idea mínima restante.
  NOTA CON MÚLTIPLES IDEAS: si la nota lista varias cosas concretas, devuelve un
  ARRAY JSON con un objeto por idea; is_new_group/is_new_subgroup solo true en el
  PRIMER objeto.

PASO 6 — Nombre del grupo: máximo 3 palabras, la CATEGORÍA o TEMA.
  Si no hay relación con ningún grupo existente, SIEMPRE crea uno nuevo.

PASO 7 — rename_group solo cuando un grupo nuevo colisiona con el nombre de uno
  existente; sin colisión, rename_group=null.

PASO 8 — Devuelve SOLO JSON (sin texto antes ni después):
  {"action":"add", "makes_sense":true, "reason":null,
   "group":"...", "subgroup":null, "idea":"...",
   "is_new_group":true/false, "is_new_subgroup":true/false,
   "inherit_parent_ideas":false, "rename_group":null}
  "idea": null o "concepto esencial, MÁXIMO 4 palabras, NUNCA copia del input"`

type fewShotExample struct {
	note     string
	existing tree.Tree
	result   string
}

// Few-shot examples, one per failure mode the prompt guards against.
// Results are literal JSON so the model sees the exact wire shape.
var fewShotExamples = []fewShotExample{
	{
		note: "elimina la idea de nadar",
		existing: tree.Tree{{Name: "rutina diaria", Subgroups: []tree.Subgroup{
			{Name: "deporte", Ideas: []string{"nadar a las 8 martes", "correr 3 veces/semana"}},
		}}},
		result: `{"action": "delete", "makes_sense": true, "reason": null, "group": "rutina diaria", "subgroup": "deporte", "idea": "nadar a las 8 martes", "is_new_group": false, "is_new_subgroup": false, "inherit_parent_ideas": false, "rename_group": null}`,
	},
	{
		note:     "ya no quiero ver Alien",
		existing: tree.Tree{{Name: "películas", Ideas: []string{"Terminator (1984)", "Alien"}}},
		result:   `{"action": "delete", "makes_sense": true, "reason": null, "group": "películas", "subgroup": null, "idea": "Alien", "is_new_group": false, "is_new_subgroup": false, "inherit_parent_ideas": false, "rename_group": null}`,
	},
	{
		note:   "asdfghjkl",
		result: `{"makes_sense": false, "reason": "El texto parece ser teclas aleatorias, no expresa ninguna idea.", "rename_group": null}`,
	},
	{
		note:   "hola como estas",
		result: `{"makes_sense": false, "reason": "Es un saludo, no una idea o tarea para organizar.", "rename_group": null}`,
	},
	{
		note:   "quiero hacer deporte, voy a empezar a nadar a las 8 los martes",
		result: `{"makes_sense": true, "reason": null, "group": "rutina diaria", "subgroup": "deporte", "idea": "nadar a las 8 martes", "is_new_group": true, "is_new_subgroup": true, "inherit_parent_ideas": false, "rename_group": null}`,
	},
	{
		note:   "tengo cita con el dentista el martes",
		result: `{"makes_sense": true, "reason": null, "group": "citas", "subgroup": "dentista", "idea": "martes", "is_new_group": true, "is_new_subgroup": true, "inherit_parent_ideas": false, "rename_group": null}`,
	},
	{
		note:   "tengo que pagar el recibo de la luz",
		result: `{"makes_sense": true, "reason": null, "group": "finanzas", "subgroup": null, "idea": "recibo luz", "is_new_group": true, "is_new_subgroup": false, "inherit_parent_ideas": false, "rename_group": null}`,
	},
	{
		note:   "ir a comprar pan al super",
		result: `{"makes_sense": true, "reason": null, "group": "compras", "subgroup": "super", "idea": "pan", "is_new_group": true, "is_new_subgroup": true, "inherit_parent_ideas": false, "rename_group": null}`,
	},
	{
		note:     "necesito comprar zapatos en Zara",
		existing: tree.Tree{{Name: "compras", Ideas: []string{"leche"}, Subgroups: []tree.Subgroup{{Name: "super", Ideas: []string{"pan"}}}}},
		result:   `{"makes_sense": true, "reason": null, "group": "compras", "subgroup": "zara", "idea": "zapatos", "is_new_group": false, "is_new_subgroup": true, "inherit_parent_ideas": false, "rename_group": null}`,
	},
	{
		note:   "abrir una tienda de vender peluches",
		result: `{"makes_sense": true, "reason": null, "group": "tienda de peluches", "subgroup": null, "idea": null, "is_new_group": true, "is_new_subgroup": false, "inherit_parent_ideas": false, "rename_group": null}`,
	},
	{
		note:     "añade el subgrupo desayuno a rutina diaria",
		existing: tree.Tree{{Name: "rutina diaria"}},
		result:   `{"makes_sense": true, "reason": null, "group": "rutina diaria", "subgroup": "desayuno", "idea": null, "is_new_group": false, "is_new_subgroup": true, "inherit_parent_ideas": false, "rename_group": null}`,
	},
	{
		note:   "crea un grupo de viajes con un subgrupo de cancun, que quiero viajar con mis amigos",
		result: `{"makes_sense": true, "reason": null, "group": "viajes", "subgroup": "cancún", "idea": "viaje con amigos", "is_new_group": true, "is_new_subgroup": true, "inherit_parent_ideas": false, "rename_group": null}`,
	},
	{
		note:   "comprar leche y huevos",
		result: `[{"makes_sense": true, "reason": null, "group": "compras", "subgroup": null, "idea": "leche", "is_new_group": true, "is_new_subgroup": false, "inherit_parent_ideas": false, "rename_group": null}, {"makes_sense": true, "reason": null, "group": "compras", "subgroup": null, "idea": "huevos", "is_new_group": false, "is_new_subgroup": false, "inherit_parent_ideas": false, "rename_group": null}]`,
	},
	{
		note:     "me gustaría crear mi propia película",
		existing: tree.Tree{{Name: "películas", Ideas: []string{"Terminator (1984)", "Alien"}}},
		result:   `{"makes_sense": true, "reason": null, "group": "filmar película", "subgroup": null, "idea": null, "is_new_group": true, "is_new_subgroup": false, "inherit_parent_ideas": false, "rename_group": {"old_name": "películas", "new_name": "ver películas"}}`,
	},
	{
		note:     "una de las páginas web que quiero crear sería sobre gatos",
		existing: tree.Tree{{Name: "pagina web", Ideas: []string{"fondo azul"}}},
		result:   `{"makes_sense": true, "reason": null, "group": "pagina web", "subgroup": "pagina sobre gatos", "idea": null, "is_new_group": false, "is_new_subgroup": true, "inherit_parent_ideas": true, "rename_group": null}`,
	},
	{
		note:     "para el hackudc quiero usar una base de datos",
		existing: tree.Tree{{Name: "hackudc"}, {Name: "natacion", Ideas: []string{"nadar"}}},
		result:   `{"makes_sense": true, "reason": null, "group": "hackudc", "subgroup": null, "idea": "base de datos", "is_new_group": false, "is_new_subgroup": false, "inherit_parent_ideas": false, "rename_group": null}`,
	},
}

// buildPrompt renders the few-shot examples plus the note and the
// current groups. Group names are listed explicitly so the model
// compares against them instead of inventing near-duplicates.
func buildPrompt(note string, snapshot tree.Tree, locale string) (string, error) {
	var b strings.Builder

	for _, ex := range fewShotExamples {
		existing, err := marshalSnapshot(ex.existing)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\nEJEMPLO:\nNota: %q\ngrupos existentes: %s\nRespuesta: %s\n", ex.note, existing, ex.result)
	}

	existing, err := marshalSnapshot(snapshot)
	if err != nil {
		return "", err
	}

	fmt.Fprintf(&b, "\nAHORA CLASIFICA:\nNota: %q\nEstado: %s\n", note, existing)
	if locale != "" {
		fmt.Fprintf(&b, "Idioma de la nota: %s\n", locale)
	}

	quoted := make([]string, len(classify.PredefinedCategories))
	for i, c := range classify.PredefinedCategories {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	fmt.Fprintf(&b, "CATEGORÍAS OBLIGATORIAS (siempre existen): %s\n", strings.Join(quoted, ", "))
	b.WriteString("Si la nota encaja en una categoría obligatoria, DEBES usarla aunque no aparezca en los grupos existentes.\n")

	if len(snapshot) > 0 {
		names := make([]string, len(snapshot))
		for i := range snapshot {
			names[i] = fmt.Sprintf("%q", snapshot[i].Name)
		}
		fmt.Fprintf(&b, "grupos existentes: %s\n", strings.Join(names, ", "))
		b.WriteString("Pregúntate: ¿la nota habla del mismo tema que alguno de esos grupos o de una categoría obligatoria?\n")
		b.WriteString("Si NO → is_new_group=true y elige un nombre descriptivo nuevo.\n")
		b.WriteString("Si SÍ → usa ese grupo con is_new_group=false.\n")
	} else {
		b.WriteString("(No hay grupos existentes: usa una categoría obligatoria si aplica, si no crea un grupo nuevo)\n")
	}

	b.WriteString("Respuesta (solo JSON):")
	return b.String(), nil
}

func marshalSnapshot(snapshot tree.Tree) (string, error) {
	if len(snapshot) == 0 {
		return "[]", nil
	}
	// Subgroups and ideas marshal as [] rather than null so the model
	// always sees the full shape.
	type subgroupJSON struct {
		Name  string   `json:"name"`
		Ideas []string `json:"ideas"`
	}
	type groupJSON struct {
		Name      string         `json:"name"`
		Ideas     []string       `json:"ideas"`
		Subgroups []subgroupJSON `json:"subgroups"`
	}

	out := make([]groupJSON, len(snapshot))
	for i, g := range snapshot {
		gj := groupJSON{Name: g.Name, Ideas: g.Ideas, Subgroups: []subgroupJSON{}}
		if gj.Ideas == nil {
			gj.Ideas = []string{}
		}
		for _, sg := range g.Subgroups {
			sj := subgroupJSON{Name: sg.Name, Ideas: sg.Ideas}
			if sj.Ideas == nil {
				sj.Ideas = []string{}
			}
			gj.Subgroups = append(gj.Subgroups, sj)
		}
		out[i] = gj
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal tree snapshot: %w", err)
	}
	return string(raw), nil
}
