package preprocess

import (
	"reflect"
	"testing"

	"github.com/pdiddy/deep-research/pkg/types"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"How is technology evolving in Colombia?", types.CategoryTechnology},
		{"Como evoluciona la tecnología en Colombia?", types.CategoryTechnology},
		{"Public HEALTH spending trends", types.CategoryHealth},
		{"Education and the economy", types.CategoryEducation},
		{"Desarrollo de la economía regional", types.CategoryEconomy},
		{"Climate change in Latin America", types.CategoryGeneral},
		{"", types.CategoryGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := Category(tt.query); got != tt.want {
				t.Errorf("Category(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestEntities(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"single", "How is technology evolving in Colombia?", []string{"How", "Colombia"}},
		{"multiple in order", "Trade between Peru and Chile and Peru", []string{"Trade", "Peru", "Chile", "Peru"}},
		{"acronyms skipped", "NASA and ESA budgets", []string{}},
		{"none", "lowercase only", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Entities(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Entities(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestQuery(t *testing.T) {
	p := Query("Tendencias de tecnología en Bogota")
	if p.Category != types.CategoryTechnology {
		t.Errorf("Category = %q, want %q", p.Category, types.CategoryTechnology)
	}
	if len(p.Entities) != 2 || p.Entities[0] != "Tendencias" || p.Entities[1] != "Bogota" {
		t.Errorf("Entities = %v, want [Tendencias Bogota]", p.Entities)
	}
}
