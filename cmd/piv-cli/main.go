// Command piv-cli is a thin, stateless collaborator around pkg/piv: it
// loads one image, runs it through the orchestrator, and writes the
// resulting JPEG 2000 bytes to disk. It holds no persisted state of its
// own. Every encoding and detection flag maps directly onto a
// ProcessingOptions field; the remaining flags choose the model files and
// the output path.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/pivrerr"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/vision"
)

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	input := os.Args[2]

	if cmd != "process" && cmd != "roi" {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	preset := fs.String("preset", "", "named preset: piv_balanced, twic_max, archival, preview")
	rate := fs.Float64("rate", 0, "fixed bits/pixel encoding rate")
	targetSize := fs.Int("target-size", 0, "target output size in bytes (TargetSize strategy)")
	roiLevel := fs.Int("roi-level", -1, "ROI start resolution level, 0-3 (0 = most aggressive boost)")
	noROI := fs.Bool("no-roi", false, "disable ROI priority coding")
	align := fs.Bool("align", false, "snap ROI rectangles to code-block boundaries")
	minConfidence := fs.Float64("min-confidence", 0, "minimum face detection confidence")
	maxRotation := fs.Float64("max-rotation", 0, "maximum correctable rotation in degrees")
	detectorModel := fs.String("detector-model", "models/retinaface.onnx", "path to the RetinaFace-family ONNX model")
	landmarkModel := fs.String("landmark-model", "models/pfld.onnx", "path to the PFLD-family ONNX model")
	output := fs.String("output", "", "output path (defaults to input basename + .jp2)")

	if err := fs.Parse(os.Args[3:]); err != nil {
		os.Exit(1)
	}

	opts := piv.DefaultOptions()
	switch *preset {
	case "piv_balanced":
		opts = piv.PivBalanced()
	case "twic_max":
		opts = piv.TwicMax()
	case "archival":
		opts = piv.Archival()
	case "preview":
		opts = piv.Preview()
	case "":
	default:
		fmt.Fprintf(os.Stderr, "unknown preset %q\n", *preset)
		os.Exit(1)
	}

	if *rate > 0 {
		opts.Strategy = piv.FixedRate(*rate)
	}
	if *targetSize > 0 {
		opts.Strategy = piv.TargetSize(*targetSize)
	}
	if *roiLevel >= 0 {
		opts.ROIStartLevel = *roiLevel
	}
	if *noROI {
		opts.EnableROI = false
	}
	if *align {
		opts.AlignROI = true
	}
	if *minConfidence > 0 {
		opts.MinFaceConfidence = *minConfidence
	}
	if *maxRotation > 0 {
		opts.MaxRotationDegrees = *maxRotation
	}

	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}

	ort.SetSharedLibraryPath(getONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		fmt.Fprintf(os.Stderr, "init onnx runtime: %v\n", err)
		os.Exit(1)
	}
	defer ort.DestroyEnvironment()

	detOpts, err := ort.NewSessionOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create detector session options: %v\n", err)
		os.Exit(1)
	}
	detector, err := vision.NewDetector(*detectorModel, detOpts)
	detOpts.Destroy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load detector model: %v\n", err)
		os.Exit(1)
	}
	defer detector.Close()

	lmOpts, err := ort.NewSessionOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create landmark session options: %v\n", err)
		os.Exit(1)
	}
	landmarks, err := vision.NewLandmarkExtractor(*landmarkModel, lmOpts)
	lmOpts.Destroy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load landmark model: %v\n", err)
		os.Exit(1)
	}
	defer landmarks.Close()

	processor := piv.NewImageProcessor(detector, landmarks)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := processor.Process(ctx, data, opts)
	if err != nil {
		kind := pivrerr.KindOf(err)
		fmt.Fprintf(os.Stderr, "%s: %v\nsuggestion: %s\n", kind, err, suggestionFor(kind))
		os.Exit(1)
	}

	outPath := *output
	if outPath == "" {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		outPath = base + ".jp2"
	}
	if err := os.WriteFile(outPath, result.Bytes, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "process":
		fmt.Printf("wrote %s (%d bytes, rate %.3f bpp)\n", outPath, len(result.Bytes), result.ActualRate)
	case "roi":
		sidecar := outPath + ".roi.json"
		payload, err := json.MarshalIndent(map[string]any{
			"regions":           result.AdditionalData["roi_set"],
			"compliance_report": result.AdditionalData["compliance_report"],
			"landmarks_68":      result.AdditionalData["landmarks_68"],
		}, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal roi sidecar: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(sidecar, payload, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write roi sidecar: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s and %s\n", outPath, sidecar)
	}
}

// suggestionFor maps a pivrerr.Kind to the short, user-facing remedy
// the CLI prints alongside the error.
func suggestionFor(kind pivrerr.Kind) string {
	switch kind {
	case pivrerr.NoFaceDetected:
		return "ensure the image contains a clear frontal face"
	case pivrerr.MultipleFaces:
		return "crop to a single subject before resubmitting"
	case pivrerr.LandmarkExtractionFailed:
		return "retake with better lighting or a less extreme pose"
	case pivrerr.GeometryFailure:
		return "the detected face geometry was degenerate; try a higher-resolution source image"
	case pivrerr.EncodingFailed:
		return "check that the JPEG 2000 encoder dependency is correctly installed"
	case pivrerr.TargetSizeUnachievable:
		return "raise --target-size or switch to a fixed --rate"
	case pivrerr.Timeout:
		return "retry; if this persists the image may be unusually large"
	case pivrerr.InvalidInput:
		return "check that the input file is a valid, non-empty image"
	default:
		return "retry; if this persists, file a bug report with the input image"
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: piv-cli <process|roi> <input> [flags]")
}

// getONNXLibPath returns the ONNX Runtime shared library path based on
// the operating system.
func getONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
