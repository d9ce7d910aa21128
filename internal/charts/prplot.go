package charts

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lantern-ml/evalbench/internal/detect"
)

// RenderPRCurve writes a precision/recall curve to a PNG file under
// outputDir and returns the file path. Points are plotted in the order
// given, recall on x and precision on y.
func RenderPRCurve(points []detect.PRPoint, title, outputDir string) (string, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("no points to plot")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, len(points))
	for i, pr := range points {
		pts[i].X = pr.Recall
		pts[i].Y = pr.Precision
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", fmt.Errorf("failed to build line: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 158, B: 137, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line, plotter.NewGrid())

	outFile := filepath.Join(outputDir, "pr_curve.png")
	if err := p.Save(8*vg.Inch, 6*vg.Inch, outFile); err != nil {
		return "", fmt.Errorf("failed to save plot: %w", err)
	}
	return outFile, nil
}
