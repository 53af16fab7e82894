// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xs

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// csvRow is one row of a pre-parsed per-isotope reaction table: one energy
// grid point and its microscopic cross sections. A full ACE-table reader
// is an external collaborator; this CSV layout is the pre-parsed shape it
// hands over.
type csvRow struct {
	EnergyEV  float64 `csv:"energy_ev"`
	Elastic   float64 `csv:"sigma_elastic"`
	Inelastic float64 `csv:"sigma_inelastic"`
	Fission   float64 `csv:"sigma_fission"`
	Nxn       float64 `csv:"sigma_nxn"`
	Capture   float64 `csv:"sigma_capture"`
	NuBar     float64 `csv:"nu_bar"`
}

// LoadIsotopeCSV reads a reaction table from r and builds an Isotope named
// name with the given atomic weight ratio. A non-monotone energy grid or
// a negative cross section is a data error, returned rather than
// panicked on.
func LoadIsotopeCSV(name string, awr float64, fissile bool, r io.Reader) (*Isotope, error) {
	var rows []*csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("xs: parsing isotope csv for %s: %w", name, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("xs: isotope %s: reaction table needs at least 2 energy points", name)
	}

	iso := &Isotope{Name: name, AWR: awr, Fissile: fissile}
	for i, row := range rows {
		if i > 0 && row.EnergyEV <= rows[i-1].EnergyEV {
			return nil, fmt.Errorf("xs: isotope %s: non-monotone energy grid at row %d", name, i)
		}
		for _, sigma := range []float64{row.Elastic, row.Inelastic, row.Fission, row.Nxn, row.Capture} {
			if sigma < 0 {
				return nil, fmt.Errorf("xs: isotope %s: negative cross section at row %d", name, i)
			}
		}
		iso.EnergyGrid = append(iso.EnergyGrid, row.EnergyEV)
		iso.SigmaElastic = append(iso.SigmaElastic, row.Elastic)
		iso.SigmaInelastic = append(iso.SigmaInelastic, row.Inelastic)
		iso.SigmaFission = append(iso.SigmaFission, row.Fission)
		iso.SigmaNxn = append(iso.SigmaNxn, row.Nxn)
		iso.SigmaCapture = append(iso.SigmaCapture, row.Capture)
		iso.NuBar = append(iso.NuBar, row.NuBar)
	}
	return iso, nil
}

// LoadIsotopeCSVFile opens fn and delegates to LoadIsotopeCSV.
func LoadIsotopeCSVFile(name string, awr float64, fissile bool, fn string) (*Isotope, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("xs: opening isotope csv %s: %w", fn, err)
	}
	defer f.Close()
	return LoadIsotopeCSV(name, awr, fissile, f)
}
