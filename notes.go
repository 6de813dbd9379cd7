package fortran

import (
	"bytes"
	"text/template"

	"github.com/soypat/fort2go/symbol"
)

// NotesFile is the name of the migration notes file written next to the generated code.
const NotesFile = "MIGRATION_NOTES.txt"

var notesTemplate = template.Must(template.New("notes").Parse(`Migration Notes (generated by fort2go, run {{.RunID}})

Scope:
- Arrays are intrinsic.Array values with Fortran column-major layout and 1-based bounds;
  subscripts in body text are not rewritten.
- Scalars with INTENT(OUT) or INTENT(INOUT) are passed as *intrinsic.Ref; callers box them
  with intrinsic.NewRef and read the V field after the call.
- CHARACTER arrays are unsupported.
- Module variables and SAVE storage are unsupported.
- Formatted I/O (FORMAT, READ, WRITE, PRINT) is unsupported.
- Non-literal dimensions and assumed-shape arrays are unsupported.
- Preprocessor directives are unsupported.
- EQUIVALENCE and COMMON are unsupported.
- GOTO and computed GOTO are unsupported.
- All modules are generated into a single Go package; names must be unique across modules.

Determinism:
- intrinsic.RANDOM_NUMBER uses a fixed default seed until RANDOM_SEED is called.
- Generated output depends only on the sorted set of input files.

Known semantic differences:
- REAL(KIND=10) and REAL(KIND=16) are narrowed to float64.
- INTEGER(KIND=16) is narrowed to int64.
- Default REAL is float64.
- NINT rounds halfway cases away from zero.

Additional notes from analysis:
{{- range .Notes}}
- {{.Key}}: {{.Text}}
{{- else}}
- None
{{- end}}
`))

type noteLine struct {
	Key, Text string
}

// RenderNotes returns the migration notes text for a run. Analyzer notes
// are listed in key order.
func RenderNotes(runID string, notes symbol.Notes) ([]byte, error) {
	data := struct {
		RunID string
		Notes []noteLine
	}{RunID: runID}
	for _, k := range notes.Keys() {
		data.Notes = append(data.Notes, noteLine{Key: k, Text: notes[k]})
	}
	var buf bytes.Buffer
	if err := notesTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
