package monitor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/teletrack/internal/telescope"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/vg"
)

// Binning of the booked histograms.
const (
	residualBins   = 100
	chi2NDOFBins   = 100
	chi2NDOFMax    = 20
	probBins       = 50
	weightBins     = 50
	multiplicityHi = 20
)

// Histograms accumulates track-quality distributions over a run.
type Histograms struct {
	ResidualX []*hbook.H1D // Per plane, unbiased x residual (mm)
	ResidualY []*hbook.H1D // Per plane, unbiased y residual (mm)

	Chi2NDOF    *hbook.H1D
	Probability *hbook.H1D
	Weights     *hbook.H1D // Every non-zero final DAF weight
	NCandidates *hbook.H1D // Candidates per event
	NAccepted   *hbook.H1D // Accepted tracks per event

	sensorIDs []int
}

// NewHistograms books histograms for the tracker's planes. Residuals are
// binned over ±residualRange mm.
func NewHistograms(sys *telescope.TrackerSystem, residualRange float64) *Histograms {
	planes := sys.Planes()
	h := &Histograms{
		ResidualX:   make([]*hbook.H1D, len(planes)),
		ResidualY:   make([]*hbook.H1D, len(planes)),
		Chi2NDOF:    hbook.NewH1D(chi2NDOFBins, 0, chi2NDOFMax),
		Probability: hbook.NewH1D(probBins, 0, 1),
		Weights:     hbook.NewH1D(weightBins, 0, 1),
		NCandidates: hbook.NewH1D(multiplicityHi, 0, multiplicityHi),
		NAccepted:   hbook.NewH1D(multiplicityHi, 0, multiplicityHi),
		sensorIDs:   make([]int, len(planes)),
	}
	for i, p := range planes {
		h.ResidualX[i] = hbook.NewH1D(residualBins, -residualRange, residualRange)
		h.ResidualY[i] = hbook.NewH1D(residualBins, -residualRange, residualRange)
		h.sensorIDs[i] = p.SensorID
	}
	return h
}

// FillEvent records the current event of sys. accepted must be the
// candidates of that event that passed the acceptance cuts.
func (h *Histograms) FillEvent(sys *telescope.TrackerSystem, accepted []*telescope.TrackCandidate) {
	h.NCandidates.Fill(float64(sys.NTracks()), 1)
	h.NAccepted.Fill(float64(len(accepted)), 1)

	for _, c := range accepted {
		h.Chi2NDOF.Fill(c.Chi2PerNDOF(), 1)
		h.Probability.Fill(c.Probability(), 1)
		for _, r := range c.Residuals() {
			h.ResidualX[r.Plane].Fill(r.DX, 1)
			h.ResidualY[r.Plane].Fill(r.DY, 1)
		}
		for _, pi := range sys.ActivePlanes() {
			for _, w := range c.Weights[pi] {
				if w > 0 {
					h.Weights.Fill(w, 1)
				}
			}
		}
	}
}

// PlaneSummary is the residual summary of one plane.
type PlaneSummary struct {
	SensorID int
	Entries  int64
	MeanX    float64
	RMSX     float64
	MeanY    float64
	RMSY     float64
}

// Summary returns residual means and spreads per plane.
func (h *Histograms) Summary() []PlaneSummary {
	out := make([]PlaneSummary, len(h.ResidualX))
	for i := range h.ResidualX {
		hx, hy := h.ResidualX[i], h.ResidualY[i]
		s := PlaneSummary{SensorID: h.sensorIDs[i], Entries: hx.Entries()}
		if s.Entries > 0 {
			s.MeanX, s.RMSX = hx.XMean(), hx.XStdDev()
			s.MeanY, s.RMSY = hy.XMean(), hy.XStdDev()
		}
		out[i] = s
	}
	return out
}

// Save renders every histogram as a PNG into outputDir.
func (h *Histograms) Save(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	for i := range h.ResidualX {
		id := h.sensorIDs[i]
		if err := savePlot(h.ResidualX[i], fmt.Sprintf("Sensor %d residual x", id), "x residual (mm)",
			filepath.Join(outputDir, fmt.Sprintf("sensor_%02d_residual_x.png", id))); err != nil {
			return err
		}
		if err := savePlot(h.ResidualY[i], fmt.Sprintf("Sensor %d residual y", id), "y residual (mm)",
			filepath.Join(outputDir, fmt.Sprintf("sensor_%02d_residual_y.png", id))); err != nil {
			return err
		}
	}

	plots := []struct {
		h     *hbook.H1D
		title string
		xlab  string
		file  string
	}{
		{h.Chi2NDOF, "Track chi2/ndof", "chi2/ndof", "chi2_ndof.png"},
		{h.Probability, "Track fit probability", "p", "probability.png"},
		{h.Weights, "DAF weights", "weight", "daf_weights.png"},
		{h.NCandidates, "Candidates per event", "candidates", "n_candidates.png"},
		{h.NAccepted, "Accepted tracks per event", "tracks", "n_accepted.png"},
	}
	for _, p := range plots {
		if err := savePlot(p.h, p.title, p.xlab, filepath.Join(outputDir, p.file)); err != nil {
			return err
		}
	}
	return nil
}

func savePlot(h *hbook.H1D, title, xlabel, path string) error {
	p := hplot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "entries"

	hh := hplot.NewH1D(h)
	hh.Infos.Style = hplot.HInfoSummary
	p.Add(hh)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
