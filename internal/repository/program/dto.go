package program

import (
	"strconv"

	domprog "github.com/techrealm/programdex/internal/domain/program"
)

// seqField orders programs by insertion; it is not a program column.
const seqField = "__seq"

// buildHashFields converts a program into a flat map for HSET. seq <= 0 omits
// the ordering field so an existing record keeps its position.
func buildHashFields(p *domprog.Program, seq int64) map[string]string {
	m := p.Fields()
	if seq > 0 {
		m[seqField] = strconv.FormatInt(seq, 10)
	}
	return m
}

// parseHashFields converts a flat hash map back into a program and its position.
func parseHashFields(m map[string]string) (domprog.Program, int64) {
	seq, _ := strconv.ParseInt(m[seqField], 10, 64)
	return domprog.FromFields(m), seq
}
