package city

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func pickerFixture(t *testing.T, datasetCSV string, postedLines []string) *Picker {
	t.Helper()
	dir := t.TempDir()

	datasetPath := filepath.Join(dir, "cities.csv")
	if err := writeFile(datasetPath, datasetCSV); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}

	postedPath := filepath.Join(dir, "posted.jsonl")
	if len(postedLines) > 0 {
		if err := writeFile(postedPath, strings.Join(postedLines, "\n")+"\n"); err != nil {
			t.Fatalf("Failed to write posted log: %v", err)
		}
	}

	return NewPicker(NewDataset(datasetPath), NewPostedStore(postedPath))
}

func TestPicker_PickBulk_EmptyPostedSet(t *testing.T) {
	picker := pickerFixture(t, "city,country\nTokyo,Japan\nLima,Peru\nOslo,Norway\n", nil)

	known := map[string]bool{"Tokyo": true, "Lima": true, "Oslo": true}
	for i := 0; i < 20; i++ {
		c, err := picker.PickBulk()
		if err != nil {
			t.Fatalf("PickBulk failed: %v", err)
		}
		if !known[c.Name] {
			t.Fatalf("PickBulk returned a city not in the dataset: %q", c.Name)
		}
	}
}

func TestPicker_PickBulk_SkipsPosted(t *testing.T) {
	picker := pickerFixture(t,
		"city,country\nTokyo,Japan\nLima,Peru\nOslo,Norway\n",
		[]string{
			`{"city":"Tokyo","country":"Japan"}`,
			`{"city":"Oslo","country":"Norway"}`,
		})

	for i := 0; i < 20; i++ {
		c, err := picker.PickBulk()
		if err != nil {
			t.Fatalf("PickBulk failed: %v", err)
		}
		if c.Name != "Lima" {
			t.Fatalf("Expected the only unposted city 'Lima', got %q", c.Name)
		}
	}
}

func TestPicker_PickBulk_AllPostedFallsBackToFullDataset(t *testing.T) {
	picker := pickerFixture(t,
		"city,country\nTokyo,Japan\nLima,Peru\n",
		[]string{
			`{"city":"Tokyo","country":"Japan"}`,
			`{"city":"Lima","country":"Peru"}`,
		})

	c, err := picker.PickBulk()
	if err != nil {
		t.Fatalf("PickBulk should degrade to repetition, got error: %v", err)
	}
	if c.Name != "Tokyo" && c.Name != "Lima" {
		t.Errorf("Fallback pick should still come from the dataset, got %q", c.Name)
	}
}

func TestPicker_PickBulk_EmptyDataset(t *testing.T) {
	picker := pickerFixture(t, "city,country\n", nil)

	if _, err := picker.PickBulk(); err == nil {
		t.Error("Expected error for empty dataset")
	}
}

func TestPicker_PickReservoir_SkipsPosted(t *testing.T) {
	picker := pickerFixture(t,
		"city,country\nTokyo,Japan\nLima,Peru\nOslo,Norway\n",
		[]string{
			`{"city":"Tokyo","country":"Japan"}`,
			`{"city":"Lima","country":"Peru"}`,
		})

	for i := 0; i < 20; i++ {
		c, err := picker.PickReservoir()
		if err != nil {
			t.Fatalf("PickReservoir failed: %v", err)
		}
		if c.Name != "Oslo" {
			t.Fatalf("Expected the only unposted city 'Oslo', got %q", c.Name)
		}
	}
}

func TestPicker_PickReservoir_AllPostedFallsBack(t *testing.T) {
	picker := pickerFixture(t,
		"city,country\nTokyo,Japan\n",
		[]string{`{"city":"Tokyo","country":"Japan"}`})

	c, err := picker.PickReservoir()
	if err != nil {
		t.Fatalf("PickReservoir should fall back to bulk sampling, got error: %v", err)
	}
	if c.Name != "Tokyo" {
		t.Errorf("Fallback pick should come from the full dataset, got %q", c.Name)
	}
}

func TestPicker_PickReservoir_UniformDistribution(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping distribution test in short mode")
	}

	var rows strings.Builder
	rows.WriteString("city,country\n")
	cityCount := 5
	for i := 0; i < cityCount; i++ {
		fmt.Fprintf(&rows, "City%d,Nowhere\n", i)
	}
	picker := pickerFixture(t, rows.String(), nil)

	runs := 10000
	counts := make(map[string]int, cityCount)
	for i := 0; i < runs; i++ {
		c, err := picker.PickReservoir()
		if err != nil {
			t.Fatalf("PickReservoir failed: %v", err)
		}
		counts[c.Name]++
	}

	// Pearson chi-square against the uniform expectation. With 4 degrees
	// of freedom the 0.001 critical value is 18.47; 30 keeps the test
	// stable across unlucky seeds while still catching a biased reservoir.
	expected := float64(runs) / float64(cityCount)
	chiSquare := 0.0
	for i := 0; i < cityCount; i++ {
		observed := float64(counts[fmt.Sprintf("City%d", i)])
		diff := observed - expected
		chiSquare += diff * diff / expected
	}

	if chiSquare > 30 {
		t.Errorf("Reservoir sampling looks biased: chi-square=%.2f, counts=%v", chiSquare, counts)
	}
}
