package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pecajuridica-backend/models"
)

func TestDetermineMemoryType(t *testing.T) {
	tests := []struct {
		filename string
		content  string
		want     models.MemoryType
	}{
		{"stj_jurisprudencia_consumidor.txt", "", models.MemoryTypeCaseLaw},
		{"doutrina_responsabilidade.txt", "", models.MemoryTypeDoctrine},
		{"codigo_defesa_consumidor.txt", "", models.MemoryTypeArticle},
		{"teses_bancarias.txt", "", models.MemoryTypeThesis},
		{"modelo_contestacao.txt", "", models.MemoryTypePiece},
		{"resp_123.txt", "EMENTA: RECURSO ESPECIAL. Relator Ministro...", models.MemoryTypeCaseLaw},
		{"anotacoes.txt", "observações do escritório", models.MemoryTypeInsight},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, determineMemoryType(tt.filename, tt.content))
		})
	}
}
