package indexer

import (
	"strings"
	"testing"
)

func TestExtractArticleInfo(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  ArticleInfo
	}{
		{
			name:  "full article header",
			chunk: "Artigo 15\nAvaliação de conhecimentos",
			want:  ArticleInfo{ArticleNumber: "15"},
		},
		{
			name:  "abbreviated article header",
			chunk: "Art. 7 Regime de faltas",
			want:  ArticleInfo{ArticleNumber: "7"},
		},
		{
			name:  "full form preferred over abbreviation",
			chunk: "Art. 3 remete para o Artigo 12 do regulamento",
			want:  ArticleInfo{ArticleNumber: "12"},
		},
		{
			name:  "case insensitive",
			chunk: "artigo 9 do presente diploma",
			want:  ArticleInfo{ArticleNumber: "9"},
		},
		{
			name:  "roman numeral chapter",
			chunk: "CAPÍTULO IV\nDisposições finais",
			want:  ArticleInfo{Chapter: "IV"},
		},
		{
			name:  "numeric chapter",
			chunk: "CAPÍTULO 3\nDo funcionamento",
			want:  ArticleInfo{Chapter: "3"},
		},
		{
			name:  "section",
			chunk: "SECÇÃO II\nDas provas escritas",
			want:  ArticleInfo{Section: "II"},
		},
		{
			name:  "lettered sub-item near the start",
			chunk: "Artigo 2\na) primeira alínea;\nb) segunda alínea;",
			want:  ArticleInfo{ArticleNumber: "2", HasSubitems: true},
		},
		{
			name:  "all markers together",
			chunk: "CAPÍTULO I\nSECÇÃO III\nArtigo 4\na) uma alínea",
			want:  ArticleInfo{ArticleNumber: "4", Chapter: "I", Section: "III", HasSubitems: true},
		},
		{
			name:  "no markers",
			chunk: "Texto corrido sem qualquer estrutura legal.",
			want:  ArticleInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractArticleInfo(tt.chunk)
			if got != tt.want {
				t.Errorf("ExtractArticleInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractArticleInfoSubitemWindowBounded(t *testing.T) {
	chunk := strings.Repeat("x ", 150) + "a) alínea fora da janela"
	if got := ExtractArticleInfo(chunk); got.HasSubitems {
		t.Error("sub-item beyond the scan window must not be detected")
	}
}
