// Command genmock fills an input directory with weather documents for local
// runs and load tests. It either copies one sample document N times or, with
// -synthetic, generates N distinct documents.
//
// Usage:
//
//	go run ./cmd/genmock -source data/mock/wt_data.json -out new_data -n 10
//	go run ./cmd/genmock -synthetic -out new_data -n 100 -locations 5 -days 365
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
)

type options struct {
	source    string
	out       string
	n         int
	synthetic bool
	locations int
	days      int
	start     time.Time
	seed      uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var opts options
	var start string
	flag.StringVar(&opts.source, "source", "", "sample document to copy (ignored with -synthetic)")
	flag.StringVar(&opts.out, "out", "new_data", "input directory to write into")
	flag.IntVar(&opts.n, "n", 10, "number of documents to write")
	flag.BoolVar(&opts.synthetic, "synthetic", false, "generate distinct documents instead of copying -source")
	flag.IntVar(&opts.locations, "locations", 3, "locations per synthetic document")
	flag.IntVar(&opts.days, "days", 30, "daily rows per location in a synthetic document")
	flag.StringVar(&start, "start", "2021-01-01", "first day of synthetic series (YYYY-MM-DD)")
	flag.Uint64Var(&opts.seed, "seed", 1, "random seed for synthetic documents")
	flag.Parse()

	t, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	opts.start = t

	if opts.n < 1 {
		return errors.New("-n must be at least 1")
	}
	if !opts.synthetic && opts.source == "" {
		flag.Usage()
		return errors.New("either -source or -synthetic is required")
	}
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return err
	}

	var sample []byte
	if !opts.synthetic {
		if sample, err = os.ReadFile(opts.source); err != nil {
			return fmt.Errorf("read sample: %w", err)
		}
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	for i := 1; i <= opts.n; i++ {
		data := sample
		if opts.synthetic {
			doc := synthesize(rng, opts.locations, opts.days, opts.start.AddDate(0, 0, (i-1)*opts.days))
			if data, err = json.Marshal(doc); err != nil {
				return fmt.Errorf("marshal document: %w", err)
			}
		}
		path := filepath.Join(opts.out, fmt.Sprintf("wt_data_%d.json", i))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("created %s", path)
	}
	return nil
}

type document struct {
	Data     []series `json:"data"`
	Duration float64  `json:"duration"`
}

type series struct {
	Header   []string    `json:"header"`
	Location [2]float64  `json:"location"`
	Value    [][]float64 `json:"value"`
}

// synthesize builds a document with plausible daily temperatures and
// precipitation for random locations, starting at first.
func synthesize(rng *rand.Rand, locations, days int, first time.Time) document {
	doc := document{Data: make([]series, 0, locations)}
	for range locations {
		lon := round(rng.Float64()*360-180, 4)
		lat := round(rng.Float64()*180-90, 4)
		base := 30 - math.Abs(lat)/3

		s := series{
			Header:   domain.ValueColumns,
			Location: [2]float64{lon, lat},
			Value:    make([][]float64, 0, days),
		}
		for d := range days {
			day := first.AddDate(0, 0, d)
			season := 8 * math.Sin(2*math.Pi*float64(day.YearDay()-80)/365)
			tmax := round(base+season+rng.NormFloat64()*2, 2)
			tmin := round(tmax-5-rng.Float64()*6, 2)
			precip := 0.0
			if rng.Float64() < 0.3 {
				precip = round(rng.ExpFloat64()*4, 2)
			}
			s.Value = append(s.Value, []float64{
				float64(day.Day()), float64(day.Month()), float64(day.Year()), float64(day.YearDay()),
				tmax, tmin, precip,
			})
		}
		doc.Data = append(doc.Data, s)
	}
	doc.Duration = round(rng.Float64(), 3)
	return doc
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
