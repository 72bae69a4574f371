// Command teletrack reconstructs straight tracks through a beam-test
// telescope from a CSV hit file.
//
// Usage:
//
//	teletrack -geometry telescope.yaml -hits run042.csv [-config tuning.json] [-plots out/]
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/teletrack/internal/config"
	"github.com/banshee-data/teletrack/internal/hits"
	"github.com/banshee-data/teletrack/internal/linefit"
	"github.com/banshee-data/teletrack/internal/monitoring"
	"github.com/banshee-data/teletrack/internal/telescope"
	"github.com/banshee-data/teletrack/internal/telescope/monitor"
	"github.com/banshee-data/teletrack/internal/timeutil"
	"github.com/banshee-data/teletrack/internal/version"
	"github.com/google/uuid"
)

var (
	geometryPath  = flag.String("geometry", "", "path to the telescope geometry YAML (required)")
	hitsPath      = flag.String("hits", "", "path to the CSV hit file (required)")
	configPath    = flag.String("config", "", "path to a tuning JSON file (defaults apply to omitted fields)")
	plotDir       = flag.String("plots", "", "directory for residual and fit-quality plots")
	residualRange = flag.Float64("residual-range", 0.1, "half-width of the residual histograms (mm)")
	maxEvents     = flag.Int("max-events", 0, "stop after this many events (0 = all)")
	compare       = flag.Bool("compare", false, "refit accepted tracks with the batch least-squares fit and report the largest difference")
	quiet         = flag.Bool("quiet", false, "suppress diagnostic logging")
	showVersion   = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("teletrack"))
		return
	}
	if *geometryPath == "" || *hitsPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *quiet {
		monitoring.SetLogger(nil)
	}
	if err := run(os.Stdout); err != nil {
		log.Fatalf("teletrack: %v", err)
	}
}

// clock times the event loop.
var clock timeutil.Clock = timeutil.RealClock{}

func run(out io.Writer) error {
	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			return err
		}
	}

	geom, err := config.LoadGeometry(*geometryPath)
	if err != nil {
		return err
	}

	sys := telescope.NewTrackerSystem(telescope.TrackerConfigFromTuning(tuning))
	if err := geom.Register(sys); err != nil {
		return err
	}
	if err := sys.Init(); err != nil {
		return err
	}

	f, err := os.Open(*hitsPath)
	if err != nil {
		return fmt.Errorf("failed to open hit file: %w", err)
	}
	defer f.Close()

	var histos *monitor.Histograms
	if *plotDir != "" {
		histos = monitor.NewHistograms(sys, *residualRange)
	}

	w := bufio.NewWriter(out)
	defer w.Flush()
	fmt.Fprintln(w, "track_id\tevent\tchi2\tndof\tprob\tx0\ty0\tdxdz\tdydz")

	var maxDiff float64
	processed := 0
	start := clock.Now()
	err = hits.NewReader(f).ForEach(func(ev telescope.Event) error {
		if *maxEvents > 0 && processed >= *maxEvents {
			return errStop
		}
		processed++

		accepted, err := sys.ProcessEvent(ev)
		if err != nil {
			return err
		}
		if histos != nil {
			histos.FillEvent(sys, accepted)
		}
		for _, c := range accepted {
			first := c.Estimates[sys.ActivePlanes()[0]]
			fmt.Fprintf(w, "trk_%s\t%d\t%.4g\t%.3g\t%.4f\t%.5f\t%.5f\t%.6f\t%.6f\n",
				uuid.NewString(), ev.Number, c.Chi2, c.NDOF, c.Probability(),
				first.X(), first.Y(), first.SlopeX(), first.SlopeY())
			if *compare {
				d, err := compareBatch(sys, c)
				if err != nil {
					monitoring.Warnf("teletrack: event %d: batch refit failed: %v", ev.Number, err)
				} else if d > maxDiff {
					maxDiff = d
				}
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return err
	}

	elapsed := clock.Since(start)
	monitoring.Logf("teletrack: %d events in %s (%.0f events/s)", processed, elapsed, timeutil.Rate(processed, elapsed))

	stats := sys.Stats()
	b, _ := json.Marshal(stats)
	monitoring.Logf("teletrack: run stats %s", b)
	if *compare {
		monitoring.Logf("teletrack: largest DAF/batch position difference %.3g mm", maxDiff)
	}

	if histos != nil {
		for _, s := range histos.Summary() {
			monitoring.Logf("teletrack: sensor %d residuals: n=%d x=%.4f±%.4f y=%.4f±%.4f",
				s.SensorID, s.Entries, s.MeanX, s.RMSX, s.MeanY, s.RMSY)
		}
		if err := histos.Save(*plotDir); err != nil {
			return err
		}
	}
	return nil
}

var errStop = errors.New("event limit reached")

// compareBatch refits the candidate's assigned hits with the batch fit and
// returns the largest position difference over all planes.
func compareBatch(sys *telescope.TrackerSystem, c *telescope.TrackCandidate) (float64, error) {
	planes := sys.Planes()
	lp := make([]linefit.Plane, len(planes))
	pts := make([]linefit.Point, len(planes))
	for i, p := range planes {
		lp[i] = linefit.Plane{Z: p.Z, SigmaX: p.SigmaX, SigmaY: p.SigmaY, ScatterVariance: p.ScatterVariance}
		if p.Excluded {
			continue
		}
		if j, ok := c.Assigned(i).Index(); ok {
			m := p.Measurements()[j]
			pts[i] = linefit.Point{X: m.X, Y: m.Y, Weight: 1}
		}
	}
	res, err := linefit.Fit(lp, pts)
	if err != nil {
		return 0, err
	}
	var maxDiff float64
	for i, s := range res.States {
		e := c.Estimates[i]
		for _, d := range []float64{s.X - e.X(), s.Y - e.Y()} {
			if d < 0 {
				d = -d
			}
			if d > maxDiff {
				maxDiff = d
			}
		}
	}
	return maxDiff, nil
}
