package storage

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"dfimoveis_scraper/models"
)

// Column order is part of the output contract; the cleaning stage indexes
// by header name but humans eyeball the file in spreadsheet tools.
var csvColumns = []string{
	"preco_anuncio", "endereco", "area_util_m2", "quartos", "suites", "vagas", "url",
}

// utf8BOM keeps accented characters intact when the file is opened in
// spreadsheet tools that sniff the encoding.
const utf8BOM = "\xef\xbb\xbf"

// CSVSink writes the full accumulated crawl to a single file, replacing
// whatever was there before.
type CSVSink struct {
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Persist writes all listings in collection order and returns how many rows
// were written. With nothing collected it writes nothing and says so.
func (s *CSVSink) Persist(listings []models.Listing) (int, error) {
	if len(listings) == 0 {
		log.Println("No listings collected, skipping CSV write")
		return 0, nil
	}

	f, err := os.Create(s.path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return 0, fmt.Errorf("write %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, l := range listings {
		row := []string{l.Price, l.Address, l.Area, l.Bedrooms, l.Suites, l.Parking, l.URL}
		if err := w.Write(row); err != nil {
			return 0, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush %s: %w", s.path, err)
	}

	log.Printf("Wrote %d listings to %s", len(listings), s.path)
	return len(listings), nil
}
