package tokenizer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Tokenize(t *testing.T) {
	var cases = []struct {
		input  string
		output []string
	}{
		{input: "", output: nil},
		{input: "   ", output: []string{}},
		{input: "?!.,;", output: []string{}},
		{input: "Redundancia  redundancia\tSEGURIDAD", output: []string{"redundancia", "redundancia", "seguridad"}},
		{input: "Protección de redes SCADA/Modbus!", output: []string{"proteccion", "de", "redes", "scadamodbus"}},
		{input: "Ñandú IEC-61850 v2.1", output: []string{"nandu", "iec61850", "v21"}},
		{input: "modbus/tcp", output: []string{"modbustcp"}},
		{input: "fin.\ninicio\fpágina", output: []string{"fin", "inicio", "pagina"}},
		{input: "¿Qué? ¡Sí!", output: []string{"que", "si"}},
		{input: "Über Öl", output: []string{"uber", "ol"}},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			out := Tokenize(c.input)
			if len(c.output) == 0 {
				assert.Empty(t, out)
				return
			}
			assert.Equal(t, c.output, out)
		})
	}
}

func Test_Tokenize_Deterministic(t *testing.T) {
	text := "Sistema de supervisión y adquisición de datos para minería"
	assert.Equal(t, Tokenize(text), Tokenize(text))
}

func Test_Counts(t *testing.T) {
	tf := Counts("modbus Modbus dnp3")
	assert.Equal(t, map[string]int{"modbus": 2, "dnp3": 1}, tf)
	assert.Empty(t, Counts(""))
}
