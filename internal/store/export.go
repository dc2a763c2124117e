package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

type ExportData struct {
	ID      string             `json:"id"`
	Scene   string             `json:"scene"`
	Dt      float64            `json:"dt"`
	Steps   int                `json:"steps"`
	Times   []float64          `json:"times"`
	Poses   [][]float64        `json:"poses"`
	Metrics map[string]float64 `json:"metrics"`
}

// ExportJSON writes a recorded run as indented JSON.
func ExportJSON(w io.Writer, meta *RunMetadata, times []float64, poses [][]float64) error {
	data := ExportData{
		ID:      meta.ID,
		Scene:   meta.Scene,
		Dt:      meta.Dt,
		Steps:   len(times),
		Times:   times,
		Poses:   poses,
		Metrics: meta.Metrics,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV writes a recorded run as time,x0,y0,theta0,... rows.
func ExportCSV(w io.Writer, times []float64, poses [][]float64) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if len(poses) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := 0; i < len(poses[0])/3; i++ {
		header = append(header,
			fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i), fmt.Sprintf("theta%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := range poses {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, v := range poses[i] {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}
