package annotation

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lantern-ml/evalbench/internal/geom"
)

// csvHeader is the column layout for annotation CSV files.
var csvHeader = []string{"image", "width", "height", "class", "x_min", "y_min", "x_max", "y_max"}

// ReadCSV parses annotation records from r. The first row must be the
// header. Every record is validated against labels; errors carry the
// record number so bad rows in large files can be found.
func ReadCSV(r io.Reader, labels *LabelSet) ([]Annotation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, want := range csvHeader {
		if header[i] != want {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, header[i], want)
		}
	}

	var anns []Annotation
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}

		a, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		if err := a.Validate(labels); err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		anns = append(anns, a)
	}
	return anns, nil
}

// ReadFile loads and validates an annotation CSV file.
func ReadFile(path string, labels *LabelSet) ([]Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotations: %w", err)
	}
	defer f.Close()

	anns, err := ReadCSV(f, labels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return anns, nil
}

// WriteCSV writes records to w in the same column layout ReadCSV expects.
func WriteCSV(w io.Writer, anns []Annotation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, a := range anns {
		rec := []string{
			a.ImageID,
			formatCoord(a.ImageSize.W),
			formatCoord(a.ImageSize.H),
			a.Class,
			formatCoord(a.Box.XMin),
			formatCoord(a.Box.YMin),
			formatCoord(a.Box.XMax),
			formatCoord(a.Box.YMax),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseRecord(rec []string) (Annotation, error) {
	w, err := parseCoord("width", rec[1])
	if err != nil {
		return Annotation{}, err
	}
	h, err := parseCoord("height", rec[2])
	if err != nil {
		return Annotation{}, err
	}

	var box geom.Box
	fields := []struct {
		name string
		dst  *float64
		raw  string
	}{
		{"x_min", &box.XMin, rec[4]},
		{"y_min", &box.YMin, rec[5]},
		{"x_max", &box.XMax, rec[6]},
		{"y_max", &box.YMax, rec[7]},
	}
	for _, f := range fields {
		v, err := parseCoord(f.name, f.raw)
		if err != nil {
			return Annotation{}, err
		}
		*f.dst = v
	}

	return Annotation{
		ImageID:   rec[0],
		Class:     rec[3],
		ImageSize: geom.Size{W: w, H: h},
		Box:       box,
	}, nil
}

func parseCoord(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %v", name, err)
	}
	return v, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
