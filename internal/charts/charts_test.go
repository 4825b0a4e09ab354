package charts

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ramonehamilton/deckforge/internal/deckstats"
	"github.com/ramonehamilton/deckforge/internal/roles"
)

func testModel(t *testing.T) *deckstats.Model {
	t.Helper()
	classifier := roles.NewClassifier(map[roles.Role][]string{
		roles.Spell:        {"Zap", "Fireball"},
		roles.WinCondition: {"Hog Rider"},
	})
	m, err := deckstats.Build([][]string{
		{"Hog Rider", "Zap", "Fireball", "Knight"},
		{"Hog Rider", "Zap", "Archers", "Knight"},
	}, classifier)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return m
}

func TestRoleMeanPoints(t *testing.T) {
	points := RoleMeanPoints(testModel(t))
	if len(points) != roles.Count {
		t.Fatalf("RoleMeanPoints() len = %d, want %d", len(points), roles.Count)
	}
	want := map[string]float64{"wincon": 1, "building": 0, "spell": 1.5, "unit": 1.5}
	for _, p := range points {
		if p.Value != want[p.Label] {
			t.Errorf("RoleMeanPoints()[%s] = %v, want %v", p.Label, p.Value, want[p.Label])
		}
	}
}

func TestTopCardPoints(t *testing.T) {
	points := TopCardPoints(testModel(t), 2)
	if len(points) != 2 {
		t.Fatalf("TopCardPoints() len = %d, want 2", len(points))
	}
	if points[0].Value != 1 {
		t.Errorf("TopCardPoints()[0].Value = %v, want 1", points[0].Value)
	}
}

func TestRenderReport(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderReport(testModel(t), 5, &buf); err != nil {
		t.Fatalf("RenderReport() error = %v", err)
	}
	html := buf.String()
	for _, want := range []string{"Top 5 cards", "Role composition", "Card synergy", "Hog Rider"} {
		if !strings.Contains(html, want) {
			t.Errorf("RenderReport() output missing %q", want)
		}
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	if err := WriteReport(testModel(t), 3, path); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
}

func TestNewPartnerMatrix(t *testing.T) {
	m := testModel(t)
	pm := NewPartnerMatrix(m, 3)
	if len(pm.Cards) != 3 || len(pm.Values) != 3 {
		t.Fatalf("NewPartnerMatrix() size = %d/%d, want 3", len(pm.Cards), len(pm.Values))
	}
	for i := range pm.Cards {
		if pm.Values[i][i] != 0 {
			t.Errorf("diagonal [%d] = %v, want 0", i, pm.Values[i][i])
		}
		for j := range pm.Cards {
			if pm.Values[i][j] != pm.Values[j][i] {
				t.Errorf("matrix not symmetric at %d,%d", i, j)
			}
			if want := m.PMI(pm.Cards[i], pm.Cards[j]); i != j && pm.Values[i][j] != want {
				t.Errorf("Values[%d][%d] = %v, want %v", i, j, pm.Values[i][j], want)
			}
		}
	}
	if pm.MaxAbs < 0 {
		t.Errorf("MaxAbs = %v, want >= 0", pm.MaxAbs)
	}
}
