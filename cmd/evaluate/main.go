// Command evaluate scores a predictions file against a ground-truth CSV:
// score filtering, non-maximum suppression, matching at an IoU
// threshold, and summary metrics with an interpolated PR curve.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/lantern-ml/evalbench/internal/annotation"
	"github.com/lantern-ml/evalbench/internal/charts"
	"github.com/lantern-ml/evalbench/internal/config"
	"github.com/lantern-ml/evalbench/internal/db"
	"github.com/lantern-ml/evalbench/internal/detect"
)

func main() {
	var truthPath string
	var predsPath string
	var configPath string
	var dbPath string
	var dataset string
	var plotDir string
	var optimal bool
	var iouThreshold, nmsThreshold, scoreThreshold float64

	flag.StringVar(&truthPath, "truth", "", "path to the ground-truth CSV")
	flag.StringVar(&predsPath, "predictions", "", "path to the predictions JSON")
	flag.StringVar(&configPath, "config", "", "path to a tuning config JSON (optional)")
	flag.StringVar(&dbPath, "db", "", "sqlite db to store the run in (optional, requires -dataset)")
	flag.StringVar(&dataset, "dataset", "", "dataset tag for the stored run")
	flag.StringVar(&plotDir, "plot-dir", "", "directory to write the PR curve PNG to (optional)")
	flag.BoolVar(&optimal, "optimal", false, "use optimal assignment matching instead of greedy")
	flag.Float64Var(&iouThreshold, "iou", -1, "IoU match threshold (overrides config)")
	flag.Float64Var(&nmsThreshold, "nms", -1, "NMS suppression threshold (overrides config)")
	flag.Float64Var(&scoreThreshold, "score", -1, "minimum detection score (overrides config)")
	flag.Parse()

	if truthPath == "" || predsPath == "" {
		log.Fatal("-truth and -predictions are required")
	}

	cfg := config.EmptyConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if iouThreshold < 0 {
		iouThreshold = cfg.GetIoUThreshold()
	}
	if nmsThreshold < 0 {
		nmsThreshold = cfg.GetNMSThreshold()
	}
	if scoreThreshold < 0 {
		scoreThreshold = cfg.GetScoreThreshold()
	}

	truths, err := annotation.ReadFile(truthPath, annotation.DefaultLabels)
	if err != nil {
		log.Fatalf("read ground truth: %v", err)
	}

	dets, err := readPredictions(predsPath)
	if err != nil {
		log.Fatalf("read predictions: %v", err)
	}

	report := runEvaluation(dets, truths, evalParams{
		IoUThreshold:   iouThreshold,
		NMSThreshold:   nmsThreshold,
		ScoreThreshold: scoreThreshold,
		Optimal:        optimal,
	})

	if plotDir != "" {
		title := fmt.Sprintf("PR curve @ IoU %.2f", iouThreshold)
		path, err := charts.RenderPRCurve(report.PRCurve, title, plotDir)
		if err != nil {
			log.Fatalf("render PR curve: %v", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	}

	if dbPath != "" {
		if dataset == "" {
			log.Fatal("-dataset is required with -db")
		}
		if err := storeRun(dbPath, dataset, report); err != nil {
			log.Fatalf("store run: %v", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("encode report: %v", err)
	}
}

type evalParams struct {
	IoUThreshold   float64 `json:"iou_threshold"`
	NMSThreshold   float64 `json:"nms_threshold"`
	ScoreThreshold float64 `json:"score_threshold"`
	Optimal        bool    `json:"optimal"`
}

type evalReport struct {
	Params           evalParams       `json:"params"`
	Metrics          detect.Metrics   `json:"metrics"`
	AveragePrecision float64          `json:"average_precision"`
	PRCurve          []detect.PRPoint `json:"pr_curve"`
	Kept             int              `json:"kept_detections"`
}

// runEvaluation applies the score filter and NMS, matches the surviving
// detections against the ground truth and summarises the result.
func runEvaluation(dets []detect.Detection, truths []annotation.Annotation, params evalParams) evalReport {
	kept := detect.FilterScore(dets, params.ScoreThreshold)
	kept = detect.NMS(kept, params.NMSThreshold)

	var metrics detect.Metrics
	if params.Optimal {
		result := detect.MatchOptimal(kept, truths, params.IoUThreshold)
		metrics = detect.Summarize(kept, truths, result, params.IoUThreshold)
	} else {
		metrics = detect.Evaluate(kept, truths, params.IoUThreshold)
	}

	curve := detect.PRCurve(kept, truths, params.IoUThreshold)
	return evalReport{
		Params:           params,
		Metrics:          metrics,
		AveragePrecision: detect.AveragePrecision(curve),
		PRCurve:          curve,
		Kept:             len(kept),
	}
}

func readPredictions(path string) ([]detect.Detection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var dets []detect.Detection
	if err := json.Unmarshal(data, &dets); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return dets, nil
}

func storeRun(dbPath, dataset string, report evalReport) error {
	database, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	eval := db.FromMetrics(dataset, report.Metrics, report.AveragePrecision)
	paramsJSON, err := json.Marshal(report.Params)
	if err != nil {
		return err
	}
	eval.ParamsJSON = paramsJSON
	if err := db.NewEvaluationStore(database).Insert(eval); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "stored run %s in %s\n", eval.EvaluationID, dbPath)
	return nil
}
