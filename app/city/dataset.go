package city

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Dataset reads the reference city dataset (CSV with a header row).
// Recognized columns: id, city, city_ascii, country, lat, lng. Extra
// columns are ignored; rows without a city value are skipped.
type Dataset struct {
	path string
}

func NewDataset(path string) *Dataset {
	return &Dataset{path: path}
}

// LoadAll reads the entire dataset into memory.
func (d *Dataset) LoadAll() ([]City, error) {
	var cities []City
	err := d.Stream(func(c City) error {
		cities = append(cities, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cities, nil
}

// Stream reads the dataset a row at a time, calling fn for each valid row.
// Suitable for datasets too large to hold in memory.
func (d *Dataset) Stream(fn func(City) error) error {
	file, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read dataset header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["city"]; !ok {
		return fmt.Errorf("dataset is missing required 'city' column")
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read dataset row: %w", err)
		}

		c, ok := parseRow(row, columns)
		if !ok {
			continue
		}
		if err := fn(c); err != nil {
			return err
		}
	}
}

func parseRow(row []string, columns map[string]int) (City, bool) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	c := City{
		Name:    field("city"),
		ASCII:   field("city_ascii"),
		Country: field("country"),
	}
	if c.Name == "" {
		return City{}, false
	}
	if c.ASCII == "" {
		c.ASCII = FoldASCII(c.Name)
	}

	if v := field("id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.ID = id
		}
	}
	if v := field("lat"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Lat = lat
		}
	}
	if v := field("lng"); v != "" {
		if lng, err := strconv.ParseFloat(v, 64); err == nil {
			c.Lng = lng
		}
	}

	return c, true
}
