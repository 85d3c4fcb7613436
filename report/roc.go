package report

import (
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/orbitalml/landcast/pkg/errors"
)

// rocPoints computes the (FPR, TPR) curve for positive-class scores,
// sweeping the decision threshold over every distinct score.
func rocPoints(yTrue []float64, scores []float64) plotter.XYs {
	type pair struct {
		score float64
		pos   bool
	}
	pairs := make([]pair, len(scores))
	var totalPos, totalNeg float64
	for i, s := range scores {
		pos := yTrue[i] == 1
		pairs[i] = pair{score: s, pos: pos}
		if pos {
			totalPos++
		} else {
			totalNeg++
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	pts := plotter.XYs{{X: 0, Y: 0}}
	var tp, fp float64
	for i := 0; i < len(pairs); {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			if pairs[j].pos {
				tp++
			} else {
				fp++
			}
			j++
		}
		i = j
		var tpr, fpr float64
		if totalPos > 0 {
			tpr = tp / totalPos
		}
		if totalNeg > 0 {
			fpr = fp / totalNeg
		}
		pts = append(pts, plotter.XY{X: fpr, Y: tpr})
	}
	return pts
}

// SaveROCCurves renders one ROC curve per record that carries positive-class
// scores (probabilities or raw decision margins) and saves the figure as a
// PNG. Records without scores are skipped. When no record has scores,
// nothing is written.
func (c *Comparison) SaveROCCurves(yTrue []float64, path string) error {
	palette := []color.RGBA{
		{R: 31, G: 119, B: 180, A: 255},
		{R: 255, G: 127, B: 14, A: 255},
		{R: 44, G: 160, B: 44, A: 255},
		{R: 214, G: 39, B: 40, A: 255},
	}

	p := plot.New()
	p.Title.Text = "ROC Curves"
	p.X.Label.Text = "False Positive Rate"
	p.Y.Label.Text = "True Positive Rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	plotted := 0
	for i, rec := range c.Records {
		if len(rec.Class1Scores) == 0 || len(rec.Class1Scores) != len(yTrue) {
			continue
		}
		line, err := plotter.NewLine(rocPoints(yTrue, rec.Class1Scores))
		if err != nil {
			return errors.NewPersistenceError(path, err)
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		label := rec.Family
		if rec.ROCAUC.IsDefined() {
			label += " (AUC " + rec.ROCAUC.String() + ")"
		}
		p.Legend.Add(label, line)
		plotted++
	}
	if plotted == 0 {
		return nil
	}

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.NewPersistenceError(path, err)
	}
	diag.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diag)

	p.Legend.Top = false
	p.Legend.Left = false

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.NewPersistenceError(path, err)
	}
	return nil
}
